package graph

import "encoding/json"

// document is the wire shape of a Graph: nodes and sub-graphs keyed by
// identifier, ordered. Unknown fields are ignored on read (the default
// behavior of encoding/json). On write, an empty sub-graph list and empty
// port and connection lists are omitted via omitempty; the nodes list is
// always written, even when empty.
type document struct {
	Nodes     []Node     `json:"nodes"`
	SubGraphs []SubGraph `json:"subgraphs,omitempty"`
}

// MarshalJSON renders the Graph as the wire document described in
// spec.md §6. A binding of None and an absent binding are both encoded as
// the field being omitted — Input.Binding's omitempty tag guarantees that.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{
		Nodes:     g.Nodes(),
		SubGraphs: g.SubGraphs(),
	})
}

// UnmarshalJSON replaces the Graph's contents with the document encoded in
// data. It does not call Validate — callers must validate explicitly, per
// spec.md §9's "any scripting or UI layer... must call validate before
// handing [graphs] off".
func (g *Graph) UnmarshalJSON(data []byte) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	g.nodes = make(map[ID]Node, len(doc.Nodes))
	g.nodeOrder = g.nodeOrder[:0]
	for _, n := range doc.Nodes {
		g.nodeOrder = append(g.nodeOrder, n.ID)
		g.nodes[n.ID] = n
	}

	g.subgraphs = make(map[ID]SubGraph, len(doc.SubGraphs))
	g.subgraphOrder = g.subgraphOrder[:0]
	for _, sg := range doc.SubGraphs {
		g.subgraphOrder = append(g.subgraphOrder, sg.ID)
		g.subgraphs[sg.ID] = sg
	}

	return nil
}

// FromJSON parses data into a new Graph without validating it.
func FromJSON(data []byte) (*Graph, error) {
	g := New()
	if err := g.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return g, nil
}

// ToJSON renders g as its canonical wire document.
func (g *Graph) ToJSON() ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}
