package graph

import "github.com/nodeshop/dataflow/internal/datatype"

// NodeBehavior declares whether a node must re-run on every cycle it is
// reached on (Active) or may reuse a cached output when its freshness
// conditions allow (Passive).
type NodeBehavior string

const (
	Active  NodeBehavior = "active"
	Passive NodeBehavior = "passive"
)

// BindingBehavior declares, per binding, whether the edge demands a fresh
// value every cycle (Always) or tolerates whatever the producer last
// emitted (Once).
type BindingBehavior string

const (
	Always BindingBehavior = "always"
	Once   BindingBehavior = "once"
)

// Binding is a directed reference from an Input to another node's Output.
type Binding struct {
	ProducerNodeID ID              `json:"producer_node_id"`
	OutputIndex    int             `json:"output_index"`
	Behavior       BindingBehavior `json:"behavior"`
}

// Input is an ordered, typed, optionally-bound port on a Node.
type Input struct {
	Name       string             `json:"name"`
	DataType   datatype.DataType  `json:"data_type"`
	IsRequired bool               `json:"is_required"`
	Binding    *Binding           `json:"binding,omitempty"`
}

// Output is an ordered, typed port on a Node.
type Output struct {
	Name     string            `json:"name"`
	DataType datatype.DataType `json:"data_type"`
}

// Node is a unit of computation. FunctionID is opaque to the planner and
// executor; it is handed to the Invoker unchanged.
type Node struct {
	ID         ID           `json:"id"`
	Name       string       `json:"name"`
	Behavior   NodeBehavior `json:"behavior"`
	IsOutput   bool         `json:"is_output"`
	Inputs     []Input      `json:"inputs,omitempty"`
	Outputs    []Output     `json:"outputs,omitempty"`
	SubgraphID ID           `json:"subgraph_id,omitempty"`
	FunctionID string       `json:"function_id,omitempty"`
}

// NewNode returns a Node with a freshly generated ID and Passive behavior,
// the same defaults original_source/Graph/src/graph.rs's Node::new uses
// (mirrored here as Passive rather than Active — spec.md's default scenario
// set, §8, declares behaviors "Passive unless noted").
func NewNode(name string) Node {
	return Node{
		ID:       NewID(),
		Name:     name,
		Behavior: Passive,
	}
}

// clone returns a deep copy of n so callers mutating the returned Node
// cannot reach into the Graph's own storage.
func (n Node) clone() Node {
	cp := n
	if n.Inputs != nil {
		cp.Inputs = make([]Input, len(n.Inputs))
		for i, in := range n.Inputs {
			cp.Inputs[i] = in
			if in.Binding != nil {
				b := *in.Binding
				cp.Inputs[i].Binding = &b
			}
		}
	}
	if n.Outputs != nil {
		cp.Outputs = append([]Output(nil), n.Outputs...)
	}
	return cp
}
