// Package plan implements the Preprocess algorithm from spec.md §4.3: it
// turns a validated graph.Graph plus the previous RuntimeGraph (if any)
// into a new RuntimeGraph describing which nodes must execute this round.
// Grounded on original_source/Graph/src/runtime_graph.rs's traverse_backward
// / traverse_forward1 / traverse_forward2 shape, re-expressed in meaning
// rather than syntax per spec.md §9's instruction to follow the later,
// refined (has_missing_inputs / total_binding_count) form of the algorithm.
package plan

import (
	"github.com/nodeshop/dataflow/internal/graph"
	"github.com/nodeshop/dataflow/internal/invoke"
)

// RuntimeNode is one node's planning record: whether it must execute this
// round, the edge behavior the rest of the graph demands of it, and the
// bookkeeping Pass A/B/C use to get there (spec.md §4.3, §4.5).
type RuntimeNode struct {
	NodeID graph.ID
	Name   string

	Behavior graph.NodeBehavior

	// EdgeBehavior is the join, over every consumer path from this node to
	// a sink, of the binding behaviors along that path: Always if any path
	// demands Always, Once otherwise (spec.md §4.3's "edge_behavior join").
	EdgeBehavior graph.BindingBehavior

	// TotalBindingCount is how many bound inputs of planned nodes reference
	// this node as producer; inputs of nodes unreachable from any sink are
	// not counted. Sinks carry this as zero since nothing downstream binds
	// to them.
	TotalBindingCount int

	// HasMissingInputs is true if this node (or a node it transitively
	// depends on) has a required input left unbound.
	HasMissingInputs bool

	// HasOutputs is true once this node has produced outputs in some
	// previous round and they are still considered valid (carried forward
	// from prev, then updated by ShouldExecute in Pass C).
	HasOutputs bool

	// ShouldExecute is Pass C's verdict: whether the executor must invoke
	// this node this round.
	ShouldExecute bool

	// Outputs is the cached output slot spec.md §3 describes. It carries
	// the node's last successfully produced values, migrated forward by
	// Preprocess when ShouldExecute is false and overwritten by the
	// executor when it is true.
	Outputs invoke.Args
}

// RuntimeGraph is the result of Preprocess: an ordered plan, producers
// before consumers, plus a name/id index for lookups (spec.md §4.3's
// "ordered list of RuntimeNodes plus a name/id index").
type RuntimeGraph struct {
	Nodes []RuntimeNode

	byID   map[graph.ID]int
	byName map[string]int
}

func newRuntimeGraph(nodes []RuntimeNode) *RuntimeGraph {
	rg := &RuntimeGraph{
		Nodes:  nodes,
		byID:   make(map[graph.ID]int, len(nodes)),
		byName: make(map[string]int, len(nodes)),
	}
	for i, n := range nodes {
		rg.byID[n.NodeID] = i
		rg.byName[n.Name] = i
	}
	return rg
}

// NodeByID returns the planning record for id, if this run's plan reaches it.
func (rg *RuntimeGraph) NodeByID(id graph.ID) (RuntimeNode, bool) {
	if rg == nil {
		return RuntimeNode{}, false
	}
	i, ok := rg.byID[id]
	if !ok {
		return RuntimeNode{}, false
	}
	return rg.Nodes[i], true
}

// NodeByName returns the planning record for name, if this run's plan
// reaches a node with that name.
func (rg *RuntimeGraph) NodeByName(name string) (RuntimeNode, bool) {
	if rg == nil {
		return RuntimeNode{}, false
	}
	i, ok := rg.byName[name]
	if !ok {
		return RuntimeNode{}, false
	}
	return rg.Nodes[i], true
}
