package graph

import (
	"fmt"

	"github.com/nodeshop/dataflow/internal/datatype"
)

// visitState tracks a node's position in the cycle-detection DFS.
type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)

// Validate walks every node and sub-graph and enforces spec.md §3's
// invariants 1-6, reporting the first violation found with a
// human-readable reason. Validate never mutates the Graph and is safe to
// call repeatedly (spec.md §4.1).
func (g *Graph) Validate() error {
	for _, id := range g.nodeOrder {
		node := g.nodes[id]

		// Invariant 1: no node carries the nil identifier.
		if node.ID.IsNil() {
			return invalid(fmt.Sprintf("node %q has the nil identifier", node.Name))
		}

		// Invariant 4: subgraph_id, if set, names an existing sub-graph.
		if !node.SubgraphID.IsNil() {
			if _, ok := g.subgraphs[node.SubgraphID]; !ok {
				return invalid(fmt.Sprintf("node %q references unknown sub-graph %s", node.Name, node.SubgraphID))
			}
		}

		for _, input := range node.Inputs {
			if input.Binding == nil {
				continue
			}
			binding := input.Binding

			// Invariant 2: producer_node_id names a node in the same graph.
			producer, ok := g.nodes[binding.ProducerNodeID]
			if !ok {
				return invalid(fmt.Sprintf(
					"node %q input %q binds to unknown producer %s", node.Name, input.Name, binding.ProducerNodeID))
			}

			// Invariant 3: output_index in range, and type-compatible.
			if binding.OutputIndex < 0 || binding.OutputIndex >= len(producer.Outputs) {
				return invalid(fmt.Sprintf(
					"node %q input %q binds to out-of-range output index %d on producer %q",
					node.Name, input.Name, binding.OutputIndex, producer.Name))
			}
			producerOutput := producer.Outputs[binding.OutputIndex]
			if !datatype.CanAssign(input.DataType, producerOutput.DataType) {
				return invalid(fmt.Sprintf(
					"node %q input %q (%s) cannot accept producer %q output %q (%s)",
					node.Name, input.Name, input.DataType, producer.Name, producerOutput.Name, producerOutput.DataType))
			}
		}
	}

	// Invariant 5: sub-graph sub-inputs/outputs reference internal nodes
	// only, with compatible types.
	for _, sgID := range g.subgraphOrder {
		sg := g.subgraphs[sgID]

		for _, sin := range sg.Inputs {
			for _, conn := range sin.Connections {
				node, ok := g.nodes[conn.NodeID]
				if !ok || node.SubgraphID != sg.ID {
					return invalid(fmt.Sprintf(
						"sub-graph %q input %q connects to node outside the sub-graph", sg.Name, sin.Name))
				}
				if conn.InputIndex < 0 || conn.InputIndex >= len(node.Inputs) {
					return invalid(fmt.Sprintf(
						"sub-graph %q input %q connects to out-of-range input index %d on node %q",
						sg.Name, sin.Name, conn.InputIndex, node.Name))
				}
				targetInput := node.Inputs[conn.InputIndex]
				if !datatype.CanAssign(targetInput.DataType, sin.DataType) {
					return invalid(fmt.Sprintf(
						"sub-graph %q input %q (%s) incompatible with node %q input %q (%s)",
						sg.Name, sin.Name, sin.DataType, node.Name, targetInput.Name, targetInput.DataType))
				}
			}
		}

		for _, sout := range sg.Outputs {
			node, ok := g.nodes[sout.NodeID]
			if !ok || node.SubgraphID != sg.ID {
				return invalid(fmt.Sprintf(
					"sub-graph %q output %q references node outside the sub-graph", sg.Name, sout.Name))
			}
			if sout.OutputIndex < 0 || sout.OutputIndex >= len(node.Outputs) {
				return invalid(fmt.Sprintf(
					"sub-graph %q output %q references out-of-range output index %d on node %q",
					sg.Name, sout.Name, sout.OutputIndex, node.Name))
			}
			producerOutput := node.Outputs[sout.OutputIndex]
			if !datatype.CanAssign(sout.DataType, producerOutput.DataType) {
				return invalid(fmt.Sprintf(
					"sub-graph %q output %q (%s) incompatible with node %q output %q (%s)",
					sg.Name, sout.Name, sout.DataType, node.Name, producerOutput.Name, producerOutput.DataType))
			}
		}
	}

	// Invariant 6: the directed graph induced by bindings (edges from
	// consumer to producer) contains no cycle.
	if cycleNode, found := g.findCycle(); found {
		return invalid(fmt.Sprintf("cycle detected in bindings reachable from node %q", cycleNode))
	}

	return nil
}

// findCycle runs a recursive DFS over the consumer-to-producer edge
// relation and returns the name of a node on a cycle, if any exists.
func (g *Graph) findCycle() (string, bool) {
	state := make(map[ID]visitState, len(g.nodeOrder))

	var visit func(id ID) (string, bool)
	visit = func(id ID) (string, bool) {
		switch state[id] {
		case visiting:
			return g.nodes[id].Name, true
		case visited:
			return "", false
		}

		state[id] = visiting
		node := g.nodes[id]
		for _, input := range node.Inputs {
			if input.Binding == nil {
				continue
			}
			if name, found := visit(input.Binding.ProducerNodeID); found {
				return name, true
			}
		}
		state[id] = visited
		return "", false
	}

	for _, id := range g.nodeOrder {
		if name, found := visit(id); found {
			return name, true
		}
	}
	return "", false
}
