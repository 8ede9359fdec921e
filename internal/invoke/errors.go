package invoke

// Fatal marks an error returned from Invoke as one that must terminate the
// run (spec.md §7's "InvokeError (fatal)"), as opposed to the default,
// recoverable case where only the failing node (and its transitive
// consumers) are marked has_missing_inputs.
type Fatal interface {
	error
	Fatal() bool
}

// fatalError wraps an error to mark it fatal.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }
func (e *fatalError) Fatal() bool   { return true }

// AsFatal wraps err so IsFatal reports true for it.
func AsFatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether err was produced by AsFatal (or otherwise
// implements Fatal() bool returning true).
func IsFatal(err error) bool {
	f, ok := err.(Fatal)
	return ok && f.Fatal()
}
