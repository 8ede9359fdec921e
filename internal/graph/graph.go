// Package graph implements the persistent dataflow graph model: nodes,
// typed ports, bindings between them, and sub-graphs, grounded on
// original_source/Graph/src/graph.rs and shaped in the style of the
// teacher's internal/domain/workflow aggregate (ordered storage keyed by
// identifier). Constructing or editing a Graph does not validate it;
// callers run Validate explicitly.
package graph

import (
	pkgerrors "github.com/nodeshop/dataflow/internal/pkg/errors"
)

// Graph is an ordered collection of nodes and sub-graphs, keyed by
// identifier. Per design note §9, nodes never hold pointers to one
// another — bindings reference producers by (ID, output index) and are
// resolved through the Graph on demand.
type Graph struct {
	nodeOrder []ID
	nodes     map[ID]Node

	subgraphOrder []ID
	subgraphs     map[ID]SubGraph
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		nodes:     make(map[ID]Node),
		subgraphs: make(map[ID]SubGraph),
	}
}

// Nodes returns the nodes in insertion order. The returned slice is a copy;
// mutating it does not affect the Graph.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, g.nodes[id].clone())
	}
	return out
}

// SubGraphs returns the sub-graphs in insertion order.
func (g *Graph) SubGraphs() []SubGraph {
	out := make([]SubGraph, 0, len(g.subgraphOrder))
	for _, id := range g.subgraphOrder {
		out = append(out, g.subgraphs[id].clone())
	}
	return out
}

// AddNode inserts node, or replaces the existing node sharing its ID — the
// same upsert semantics as Graph::add_node in graph.rs.
func (g *Graph) AddNode(node Node) {
	if _, exists := g.nodes[node.ID]; !exists {
		g.nodeOrder = append(g.nodeOrder, node.ID)
	}
	g.nodes[node.ID] = node.clone()
}

// RemoveNode deletes the node with id, and clears every binding in the
// Graph that targeted it (spec.md §3 Lifecycle). id must not be NilID.
func (g *Graph) RemoveNode(id ID) {
	if id.IsNil() {
		panic("graph: RemoveNode called with the nil ID")
	}
	if _, exists := g.nodes[id]; !exists {
		return
	}

	delete(g.nodes, id)
	g.nodeOrder = removeID(g.nodeOrder, id)

	for nodeID, node := range g.nodes {
		changed := false
		for i := range node.Inputs {
			if node.Inputs[i].Binding != nil && node.Inputs[i].Binding.ProducerNodeID == id {
				node.Inputs[i].Binding = nil
				changed = true
			}
		}
		if changed {
			g.nodes[nodeID] = node
		}
	}
}

// NodeByID looks up a node by identifier. The nil ID never resolves.
func (g *Graph) NodeByID(id ID) (Node, bool) {
	if id.IsNil() {
		return Node{}, false
	}
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// NodeByName returns the first node with the given name, in insertion
// order. Names are not required to be unique.
func (g *Graph) NodeByName(name string) (Node, bool) {
	for _, id := range g.nodeOrder {
		if n := g.nodes[id]; n.Name == name {
			return n.clone(), true
		}
	}
	return Node{}, false
}

// AddSubGraph inserts sg, or replaces the existing sub-graph sharing its ID.
func (g *Graph) AddSubGraph(sg SubGraph) {
	if _, exists := g.subgraphs[sg.ID]; !exists {
		g.subgraphOrder = append(g.subgraphOrder, sg.ID)
	}
	g.subgraphs[sg.ID] = sg.clone()
}

// RemoveSubGraph deletes the sub-graph with id and every node it owns
// (spec.md §3 Lifecycle). id must not be NilID.
func (g *Graph) RemoveSubGraph(id ID) {
	if id.IsNil() {
		panic("graph: RemoveSubGraph called with the nil ID")
	}
	if _, exists := g.subgraphs[id]; !exists {
		return
	}

	delete(g.subgraphs, id)
	g.subgraphOrder = removeID(g.subgraphOrder, id)

	var owned []ID
	for _, nodeID := range g.nodeOrder {
		if g.nodes[nodeID].SubgraphID == id {
			owned = append(owned, nodeID)
		}
	}
	for _, nodeID := range owned {
		g.RemoveNode(nodeID)
	}
}

// SubGraphByID looks up a sub-graph by identifier.
func (g *Graph) SubGraphByID(id ID) (SubGraph, bool) {
	if id.IsNil() {
		return SubGraph{}, false
	}
	sg, ok := g.subgraphs[id]
	if !ok {
		return SubGraph{}, false
	}
	return sg.clone(), true
}

func removeID(ids []ID, target ID) []ID {
	out := ids[:0:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// invalid is a thin helper constructing the DomainError validate returns,
// so every invariant violation is reported in the same shape.
func invalid(reason string) error {
	return pkgerrors.ValidationFailed(reason)
}
