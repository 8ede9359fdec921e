// Package execute implements the runtime executor from spec.md §4.4: it
// walks a planned RuntimeGraph in order, invokes an Invoker for every node
// Preprocess marked should_execute, carries values along bindings, and
// leaves cached outputs in place for everything else. Grounded on the
// teacher's execution.Executor/Repository shape
// (internal/domain/execution/executor.go, pre-transformation) for the
// overall run-loop structure, and on
// original_source/Graph/src/runtime_tests.rs for the cooperative
// cancellation and failure-propagation behavior it must reproduce.
package execute

import (
	"context"

	"github.com/nodeshop/dataflow/internal/graph"
	"github.com/nodeshop/dataflow/internal/invoke"
	pkgerrors "github.com/nodeshop/dataflow/internal/pkg/errors"
	"github.com/nodeshop/dataflow/internal/pkg/eventbus"
	"github.com/nodeshop/dataflow/internal/plan"
)

// Executor runs an Invoker across a planned RuntimeGraph.
type Executor struct {
	Invoker invoke.Invoker
	Events  *eventbus.EventBus
}

// New returns an Executor dispatching through invoker. Events may be wired
// up afterward; a nil Events is a valid no-op.
func New(invoker invoke.Invoker) *Executor {
	return &Executor{Invoker: invoker}
}

// Run walks rt in producer-first order, mutating it in place: each node
// Preprocess marked should_execute is invoked and its outputs cached on
// the RuntimeNode; every other reachable node keeps whatever Preprocess
// carried forward. Run returns a non-nil error only for a fatal Invoker
// failure (spec.md §7's InvokeError (fatal)) — rt still holds the partial
// plan at that point and may be reused as the next cycle's prev. A
// cancelled ctx stops the walk cleanly with no error, per spec.md §5.
// Whichever way Run returns, it prunes store of contexts whose node is no
// longer in g.
func (e *Executor) Run(ctx context.Context, g *graph.Graph, rt *plan.RuntimeGraph, store *ContextStore) error {
	defer store.Prune(g)

	index := make(map[graph.ID]int, len(rt.Nodes))
	for i, n := range rt.Nodes {
		index[n.NodeID] = i
	}

	executed := 0
	for i := range rt.Nodes {
		select {
		case <-ctx.Done():
			remaining := len(rt.Nodes) - i
			for j := i; j < len(rt.Nodes); j++ {
				rt.Nodes[j].ShouldExecute = false
			}
			e.publish(ctx, RunCancelled{RemainingCount: remaining})
			return nil
		default:
		}

		rtNode := &rt.Nodes[i]
		if rtNode.HasMissingInputs {
			continue
		}

		node, ok := g.NodeByID(rtNode.NodeID)
		if !ok {
			panic("execute: runtime node " + rtNode.NodeID.String() + " is not in the graph")
		}

		// A node can only learn it sits downstream of a failure that
		// happened earlier in this same run — Preprocess had no way to
		// know about it. Producer-first order means every producer this
		// node binds to has already been visited.
		if producerFailed(node, rt.Nodes, index) {
			rtNode.HasMissingInputs = true
			rtNode.ShouldExecute = false
			continue
		}

		if !rtNode.ShouldExecute {
			continue
		}

		inputs := gatherInputs(node, rt.Nodes, index)
		outputs := make(invoke.Args, len(node.Outputs))
		invokeCtx := store.Get(node.ID)

		err := e.Invoker.Invoke(ctx, invoke.FunctionID(node.FunctionID), invokeCtx, inputs, outputs)
		if err != nil {
			fatal := invoke.IsFatal(err)
			e.publish(ctx, NodeFailed{NodeID: node.ID, Name: node.Name, Err: err, Fatal: fatal})
			if fatal {
				return pkgerrors.InvokeFailed(node.Name, true, err)
			}
			rtNode.HasMissingInputs = true
			rtNode.ShouldExecute = false
			continue
		}

		rtNode.Outputs = outputs
		executed++
		e.publish(ctx, NodeExecuted{NodeID: node.ID, Name: node.Name})
	}

	e.publish(ctx, RunCompleted{NodeCount: len(rt.Nodes), ExecutedCount: executed})
	return nil
}

// producerFailed reports whether any of node's bound producers already
// carries has_missing_inputs in this run's plan.
func producerFailed(node graph.Node, nodes []plan.RuntimeNode, index map[graph.ID]int) bool {
	for _, input := range node.Inputs {
		if input.Binding == nil {
			continue
		}
		if pIdx, ok := index[input.Binding.ProducerNodeID]; ok && nodes[pIdx].HasMissingInputs {
			return true
		}
	}
	return false
}

// gatherInputs assembles the positional input vector for node: a bound
// input reads its producer's cached output slot; an unbound input reads
// the typed None (unbound required inputs never reach here — Preprocess
// marks their node has_missing_inputs and Run skips it above).
func gatherInputs(node graph.Node, nodes []plan.RuntimeNode, index map[graph.ID]int) invoke.Args {
	inputs := make(invoke.Args, len(node.Inputs))
	for i, input := range node.Inputs {
		if input.Binding == nil {
			inputs[i] = invoke.None
			continue
		}
		pIdx, ok := index[input.Binding.ProducerNodeID]
		if !ok || input.Binding.OutputIndex >= len(nodes[pIdx].Outputs) {
			inputs[i] = invoke.None
			continue
		}
		inputs[i] = nodes[pIdx].Outputs[input.Binding.OutputIndex]
	}
	return inputs
}

// publish is a no-op when Events is nil, so callers that don't care about
// run telemetry don't have to wire an event bus.
func (e *Executor) publish(ctx context.Context, event eventbus.Event) {
	if e.Events == nil {
		return
	}
	_ = e.Events.PublishSync(ctx, event)
}
