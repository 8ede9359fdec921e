package plan

import (
	"encoding/json"

	"github.com/nodeshop/dataflow/internal/graph"
	"github.com/nodeshop/dataflow/internal/invoke"
)

// runtimeNodeDoc is the JSON wire shape of a RuntimeNode. runtime.go's own
// struct carries no json tags — it is a pure in-memory planning record —
// so the wire shape and its (de)serialization live here instead, the same
// separation internal/graph draws between node.go and codec.go.
type runtimeNodeDoc struct {
	NodeID            graph.ID              `json:"node_id"`
	Name              string                `json:"name"`
	Behavior          graph.NodeBehavior    `json:"behavior"`
	EdgeBehavior      graph.BindingBehavior `json:"edge_behavior"`
	TotalBindingCount int                   `json:"total_binding_count"`
	HasMissingInputs  bool                  `json:"has_missing_inputs"`
	HasOutputs        bool                  `json:"has_outputs"`
	ShouldExecute     bool                  `json:"should_execute"`
	Outputs           invoke.Args           `json:"outputs,omitempty"`
}

type runtimeGraphDoc struct {
	Nodes []runtimeNodeDoc `json:"nodes"`
}

// MarshalJSON renders the RuntimeGraph as spec.md §6's diagnostic wire
// format — ordered, producer-first, every field Preprocess computed.
func (rg *RuntimeGraph) MarshalJSON() ([]byte, error) {
	doc := runtimeGraphDoc{Nodes: make([]runtimeNodeDoc, len(rg.Nodes))}
	for i, n := range rg.Nodes {
		doc.Nodes[i] = runtimeNodeDoc{
			NodeID:            n.NodeID,
			Name:              n.Name,
			Behavior:          n.Behavior,
			EdgeBehavior:      n.EdgeBehavior,
			TotalBindingCount: n.TotalBindingCount,
			HasMissingInputs:  n.HasMissingInputs,
			HasOutputs:        n.HasOutputs,
			ShouldExecute:     n.ShouldExecute,
			Outputs:           n.Outputs,
		}
	}
	return json.Marshal(doc)
}

// UnmarshalJSON replaces the RuntimeGraph's contents with the document
// encoded in data, rebuilding the id/name indexes newRuntimeGraph keeps.
func (rg *RuntimeGraph) UnmarshalJSON(data []byte) error {
	var doc runtimeGraphDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	nodes := make([]RuntimeNode, len(doc.Nodes))
	for i, d := range doc.Nodes {
		nodes[i] = RuntimeNode{
			NodeID:            d.NodeID,
			Name:              d.Name,
			Behavior:          d.Behavior,
			EdgeBehavior:      d.EdgeBehavior,
			TotalBindingCount: d.TotalBindingCount,
			HasMissingInputs:  d.HasMissingInputs,
			HasOutputs:        d.HasOutputs,
			ShouldExecute:     d.ShouldExecute,
			Outputs:           d.Outputs,
		}
	}

	*rg = *newRuntimeGraph(nodes)
	return nil
}

// ToJSON renders rg as its canonical wire document, the snapshot form
// persisted by internal/infrastructure/persistence/postgres and cached by
// internal/infrastructure/cache so a later process can reload it as prev.
func (rg *RuntimeGraph) ToJSON() ([]byte, error) {
	return json.Marshal(rg)
}

// SnapshotFromJSON parses data (as produced by ToJSON) into a fresh
// RuntimeGraph usable as Preprocess's prev argument.
func SnapshotFromJSON(data []byte) (*RuntimeGraph, error) {
	rg := &RuntimeGraph{}
	if err := rg.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return rg, nil
}
