package graph

import "github.com/google/uuid"

// ID identifies a Node or SubGraph within a Graph. The zero value, NilID, is
// reserved and never names an existing entity (spec.md §3, invariant 1).
type ID uuid.UUID

// NilID is the reserved, always-invalid identifier.
var NilID = ID(uuid.Nil)

// NewID generates a fresh, non-nil identifier.
func NewID() ID {
	return ID(uuid.New())
}

// IsNil reports whether id is the reserved nil identifier.
func (id ID) IsNil() bool {
	return id == NilID
}

func (id ID) String() string {
	return uuid.UUID(id).String()
}

// ParseID parses the canonical string form of an ID.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilID, err
	}
	return ID(u), nil
}

// MarshalText implements encoding.TextMarshaler so ID round-trips through
// JSON (and any other text-based persistence) as its canonical string form.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty string decodes
// to NilID, matching the wire contract that an absent binding and a None
// binding are indistinguishable (spec.md §6).
func (id *ID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*id = NilID
		return nil
	}
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
