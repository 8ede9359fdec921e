package execute

import "github.com/nodeshop/dataflow/internal/graph"

// NodeExecuted fires once a node's Invoker call returns successfully.
type NodeExecuted struct {
	NodeID graph.ID
	Name   string
}

func (e NodeExecuted) EventType() string     { return "execute.node_executed" }
func (e NodeExecuted) AggregateID() string   { return e.NodeID.String() }
func (e NodeExecuted) AggregateType() string { return "node" }

// NodeFailed fires when a node's Invoker call returns an error, recoverable
// or fatal (spec.md §7).
type NodeFailed struct {
	NodeID graph.ID
	Name   string
	Err    error
	Fatal  bool
}

func (e NodeFailed) EventType() string     { return "execute.node_failed" }
func (e NodeFailed) AggregateID() string   { return e.NodeID.String() }
func (e NodeFailed) AggregateType() string { return "node" }

// RunCompleted fires once Run walks the full plan without a fatal error.
type RunCompleted struct {
	NodeCount     int
	ExecutedCount int
}

func (e RunCompleted) EventType() string     { return "execute.run_completed" }
func (e RunCompleted) AggregateID() string   { return "" }
func (e RunCompleted) AggregateType() string { return "run" }

// RunCancelled fires when Run stops early on a cancelled context.
type RunCancelled struct {
	RemainingCount int
}

func (e RunCancelled) EventType() string     { return "execute.run_cancelled" }
func (e RunCancelled) AggregateID() string   { return "" }
func (e RunCancelled) AggregateType() string { return "run" }
