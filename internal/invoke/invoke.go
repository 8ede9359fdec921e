// Package invoke defines the boundary where the scheduler hands control to
// external computation: the Invoker contract from spec.md §4.2, grounded on
// original_source/Graph/src/lua_invoker.rs's function-dispatch shape and the
// teacher's execution.NodeExecutor interface
// (internal/domain/execution/node.go, pre-transformation).
package invoke

import (
	"context"

	"github.com/nodeshop/dataflow/internal/datatype"
)

// FunctionID names a callable an Invoker knows how to run. It is opaque to
// the planner and executor; only the Invoker interprets it.
type FunctionID string

// Value is a tagged union over datatype.DataType. Exactly one of the typed
// fields is meaningful, selected by Type; Type == datatype.None carries no
// payload.
type Value struct {
	Type   datatype.DataType
	Int    int64
	Float  float64
	String string
	Bool   bool
	// Any carries payloads that don't fit a scalar field — Image and Array
	// values, and anything a future DataType adds.
	Any any
}

// None is the typed absence of a value, used for optional unbound inputs.
var None = Value{Type: datatype.None}

// IsNone reports whether v carries no value.
func (v Value) IsNone() bool {
	return v.Type == datatype.None
}

// Args is a fixed-length, positionally-aligned vector of Values, matching a
// node's declared input or output ports (spec.md §4.2, §6).
type Args []Value

// Context is the opaque, per-node scratch value threaded through
// successive Invoke calls for the same node, letting stateful nodes (a
// file-reading source, say) persist state across runs. Its lifetime is
// managed by the caller (see execute.ContextStore), not by the Invoker.
type Context struct {
	// State holds whatever the Invoker implementation wants to stash
	// between invocations of the same node. It starts nil.
	State any
}

// Invoker is the abstract callable that executes a single node given
// typed inputs and produces typed outputs (spec.md §4.2). It is stateless
// with respect to the graph: it knows only how to dispatch FunctionIDs.
type Invoker interface {
	// AllFunctions enumerates every FunctionID this Invoker can dispatch.
	AllFunctions() []FunctionID

	// Invoke executes one callable. ctx is the node's persistent scratch
	// value; inputs and outputs are fixed-length and positionally aligned
	// with the node's declared ports. The callable must consume every
	// input and produce every output. A returned error is treated as
	// recoverable unless it satisfies the Fatal interface (see errors.go).
	Invoke(ctx context.Context, function FunctionID, invokeCtx *Context, inputs Args, outputs Args) error
}
