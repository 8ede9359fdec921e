package plan

import "github.com/nodeshop/dataflow/internal/graph"

// Preprocess runs the three-pass planning algorithm from spec.md §4.3: it
// turns g plus the previous cycle's plan (prev, which may be nil on the
// first cycle) into the RuntimeGraph the executor should run next.
//
// Preprocess assumes g has already passed Validate (spec.md §9's "the
// planner assumes valid input and is allowed to panic if invariants are
// violated"); it never returns an error.
func Preprocess(g *graph.Graph, prev *RuntimeGraph) *RuntimeGraph {
	next, index := passA(g, prev)
	passB(g, next, index)
	passC(g, next, index)
	countBindings(g, next, index)
	return newRuntimeGraph(next)
}

// passA computes backward reachability from every sink and lays nodes out
// in producer-first order via a DFS postorder: visiting a node recurses
// into every bound producer first, so a node is only appended once
// everything it depends on is already in place. A flat sweep-then-reverse
// construction (the simpler alternative) gets this wrong for a diamond —
// a node reachable through two consumers discovered at different depths —
// so the postorder DFS is the one that is actually correct for any
// reachable shape, not just a chain.
//
// A sink's edge_behavior is fixed to Always, and its Behavior is fixed to
// Active regardless of what the graph declares — a sink is where a run's
// side effects land, so it is always reconsidered for execution rather
// than left to a Passive node's upstream-freshness check (grounded on
// original_source/Graph/src/runtime_graph.rs's traverse_backward, which
// hardcodes the seeded behavior the same way).
func passA(g *graph.Graph, prev *RuntimeGraph) ([]RuntimeNode, map[graph.ID]int) {
	var next []RuntimeNode
	index := make(map[graph.ID]int)

	var visit func(id graph.ID, isSink bool)
	visit = func(id graph.ID, isSink bool) {
		if _, done := index[id]; done {
			return
		}

		node, ok := g.NodeByID(id)
		if !ok {
			panic("plan: binding references unknown node " + id.String())
		}

		missing := false
		for _, input := range node.Inputs {
			if input.Binding == nil {
				if input.IsRequired {
					missing = true
				}
				continue
			}
			visit(input.Binding.ProducerNodeID, false)
		}

		rt := RuntimeNode{NodeID: id, Name: node.Name}
		if isSink {
			rt.Behavior = graph.Active
			rt.EdgeBehavior = graph.Always
		} else {
			rt.Behavior = node.Behavior
			rt.EdgeBehavior = graph.Once
		}
		rt.HasMissingInputs = missing
		if prev != nil {
			if p, ok := prev.NodeByID(id); ok {
				rt.HasOutputs = p.HasOutputs
				rt.Outputs = p.Outputs
			}
		}

		index[id] = len(next)
		next = append(next, rt)
	}

	for _, n := range g.Nodes() {
		if n.IsOutput {
			visit(n.ID, true)
		}
	}

	joinEdgeBehavior(g, next, index)

	return next, index
}

// joinEdgeBehavior computes each node's edge_behavior as the join, over
// every consumer path to a sink, of the binding behaviors along that path
// (spec.md §4.3, §9's note that all paths — not just the first discovered
// — must be considered). A node's own edge_behavior must be fully settled
// before it can correctly push a join onto its producers, which means
// this must run consumer-before-producer — the exact reverse of next's
// producer-first order.
func joinEdgeBehavior(g *graph.Graph, next []RuntimeNode, index map[graph.ID]int) {
	for i := len(next) - 1; i >= 0; i-- {
		if next[i].EdgeBehavior != graph.Always {
			continue
		}
		node, ok := g.NodeByID(next[i].NodeID)
		if !ok {
			panic("plan: runtime node " + next[i].NodeID.String() + " is not in the graph")
		}
		for _, input := range node.Inputs {
			if input.Binding == nil || input.Binding.Behavior != graph.Always {
				continue
			}
			if pIdx, ok := index[input.Binding.ProducerNodeID]; ok {
				next[pIdx].EdgeBehavior = graph.Always
			}
		}
	}
}

// passB propagates has_missing_inputs forward along bindings. next is
// already in producer-first order, so a single left-to-right sweep
// suffices: every producer a node depends on has a smaller index and has
// already been finalized (spec.md §4.3's "missingness is monotonic").
func passB(g *graph.Graph, next []RuntimeNode, index map[graph.ID]int) {
	for i := range next {
		node, ok := g.NodeByID(next[i].NodeID)
		if !ok {
			panic("plan: runtime node " + next[i].NodeID.String() + " is not in the graph")
		}

		missing := next[i].HasMissingInputs
		for _, input := range node.Inputs {
			if input.Binding == nil {
				if input.IsRequired {
					missing = true
				}
				continue
			}
			if pIdx, ok := index[input.Binding.ProducerNodeID]; ok && next[pIdx].HasMissingInputs {
				missing = true
			}
		}
		next[i].HasMissingInputs = missing
	}
}

// passC decides should_execute per spec.md §4.3. It runs in the same
// producer-first order as passB, so an Always-bound producer's verdict is
// already settled by the time its consumer is evaluated — that settled
// verdict, not the previous cycle's, is what a Passive node's freshness
// check reads (confirmed against every worked scenario in spec.md §8).
func passC(g *graph.Graph, next []RuntimeNode, index map[graph.ID]int) {
	for i := range next {
		if next[i].HasMissingInputs {
			continue
		}

		if !next[i].HasOutputs {
			next[i].ShouldExecute = true
			next[i].HasOutputs = true
			continue
		}

		if next[i].EdgeBehavior == graph.Once {
			continue
		}

		if next[i].Behavior == graph.Active {
			next[i].ShouldExecute = true
			next[i].HasOutputs = true
			continue
		}

		node, ok := g.NodeByID(next[i].NodeID)
		if !ok {
			panic("plan: runtime node " + next[i].NodeID.String() + " is not in the graph")
		}
		for _, input := range node.Inputs {
			if input.Binding == nil || input.Binding.Behavior != graph.Always {
				continue
			}
			pIdx, ok := index[input.Binding.ProducerNodeID]
			if ok && next[pIdx].ShouldExecute {
				next[i].ShouldExecute = true
				next[i].HasOutputs = true
				break
			}
		}
	}
}

// countBindings tallies, for each planned node, how many inputs of planned
// nodes currently bind to one of its outputs — used for cache-release
// bookkeeping (spec.md §3's total_binding_count). Consumers unreachable
// from any sink are not in next and so do not contribute a count.
func countBindings(g *graph.Graph, next []RuntimeNode, index map[graph.ID]int) {
	for i := range next {
		node, ok := g.NodeByID(next[i].NodeID)
		if !ok {
			continue
		}
		for _, input := range node.Inputs {
			if input.Binding == nil {
				continue
			}
			if pIdx, ok := index[input.Binding.ProducerNodeID]; ok {
				next[pIdx].TotalBindingCount++
			}
		}
	}
}
