package graph

import "github.com/nodeshop/dataflow/internal/datatype"

// SubInputConnection routes a sub-graph input into one internal node's
// input port.
type SubInputConnection struct {
	NodeID     ID  `json:"node_id"`
	InputIndex int `json:"input_index"`
}

// SubInput is an ordered, typed entry point into a SubGraph. A single
// sub-input may fan out to several internal node inputs.
type SubInput struct {
	Name        string               `json:"name"`
	DataType    datatype.DataType    `json:"data_type"`
	IsRequired  bool                 `json:"is_required"`
	Connections []SubInputConnection `json:"connections,omitempty"`
}

// SubOutput is an ordered, typed exit point from a SubGraph, referencing
// exactly one internal node output.
type SubOutput struct {
	Name        string            `json:"name"`
	DataType    datatype.DataType `json:"data_type"`
	NodeID      ID                `json:"node_id"`
	OutputIndex int               `json:"output_index"`
}

// SubGraph groups a set of nodes (those whose Node.SubgraphID equals this
// SubGraph's ID) behind an ordered set of typed inputs and outputs.
type SubGraph struct {
	ID      ID          `json:"id"`
	Name    string      `json:"name"`
	Inputs  []SubInput  `json:"inputs,omitempty"`
	Outputs []SubOutput `json:"outputs,omitempty"`
}

// NewSubGraph returns a SubGraph with a freshly generated ID.
func NewSubGraph(name string) SubGraph {
	return SubGraph{ID: NewID(), Name: name}
}

func (sg SubGraph) clone() SubGraph {
	cp := sg
	if sg.Inputs != nil {
		cp.Inputs = make([]SubInput, len(sg.Inputs))
		for i, in := range sg.Inputs {
			cp.Inputs[i] = in
			cp.Inputs[i].Connections = append([]SubInputConnection(nil), in.Connections...)
		}
	}
	if sg.Outputs != nil {
		cp.Outputs = append([]SubOutput(nil), sg.Outputs...)
	}
	return cp
}
