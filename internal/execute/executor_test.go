package execute_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeshop/dataflow/internal/datatype"
	"github.com/nodeshop/dataflow/internal/execute"
	"github.com/nodeshop/dataflow/internal/graph"
	"github.com/nodeshop/dataflow/internal/invoke"
	"github.com/nodeshop/dataflow/internal/pkg/eventbus"
	"github.com/nodeshop/dataflow/internal/plan"
)

// fnInvoker dispatches FunctionIDs to plain Go closures. It is the test
// double standing in for the original's LambdaInvoker
// (original_source/Graph/src/runtime_tests.rs), which wires node names
// directly to Rust closures the same way.
type fnInvoker struct {
	fns   map[invoke.FunctionID]func(inputs, outputs invoke.Args) error
	calls []invoke.FunctionID
}

func newFnInvoker() *fnInvoker {
	return &fnInvoker{fns: make(map[invoke.FunctionID]func(inputs, outputs invoke.Args) error)}
}

func (f *fnInvoker) AllFunctions() []invoke.FunctionID {
	ids := make([]invoke.FunctionID, 0, len(f.fns))
	for id := range f.fns {
		ids = append(ids, id)
	}
	return ids
}

func (f *fnInvoker) Invoke(_ context.Context, function invoke.FunctionID, _ *invoke.Context, inputs, outputs invoke.Args) error {
	f.calls = append(f.calls, function)
	fn, ok := f.fns[function]
	if !ok {
		return errors.New("unknown function " + string(function))
	}
	return fn(inputs, outputs)
}

func intVal(v int64) invoke.Value { return invoke.Value{Type: datatype.Int, Int: v} }

// buildComputeGraph wires the same five-node shape as
// internal/plan/preprocess_test.go's buildFiveNodeGraph (sum binds val1 and
// val2, mult binds val1 and sum, print is the sink), each node given a
// FunctionID an fnInvoker can dispatch. The arithmetic (val1=3, val2=4,
// sum=val1+val2=7, mult=val1*sum=21) is this test's own, not a reproduction
// of runtime_tests.rs's 35/49/63 sequence — it exercises the same structural
// behavior (the sink re-running on cached upstream values after a no-op
// replan) with simpler numbers to check.
func buildComputeGraph(t *testing.T) (*graph.Graph, map[string]graph.ID, *fnInvoker, *[]int64) {
	t.Helper()

	g := graph.New()
	ids := make(map[string]graph.ID)
	inv := newFnInvoker()
	var printed []int64

	val1 := graph.NewNode("val1")
	val1.FunctionID = "const_val1"
	val1.Outputs = []graph.Output{{Name: "out", DataType: datatype.Int}}
	ids["val1"] = val1.ID
	g.AddNode(val1)
	inv.fns["const_val1"] = func(_, outputs invoke.Args) error {
		outputs[0] = intVal(3)
		return nil
	}

	val2 := graph.NewNode("val2")
	val2.FunctionID = "const_val2"
	val2.Outputs = []graph.Output{{Name: "out", DataType: datatype.Int}}
	ids["val2"] = val2.ID
	g.AddNode(val2)
	inv.fns["const_val2"] = func(_, outputs invoke.Args) error {
		outputs[0] = intVal(4)
		return nil
	}

	sum := graph.NewNode("sum")
	sum.FunctionID = "sum"
	sum.Inputs = []graph.Input{
		{Name: "a", DataType: datatype.Int, IsRequired: true, Binding: &graph.Binding{ProducerNodeID: ids["val1"], OutputIndex: 0, Behavior: graph.Always}},
		{Name: "b", DataType: datatype.Int, IsRequired: true, Binding: &graph.Binding{ProducerNodeID: ids["val2"], OutputIndex: 0, Behavior: graph.Always}},
	}
	sum.Outputs = []graph.Output{{Name: "out", DataType: datatype.Int}}
	ids["sum"] = sum.ID
	g.AddNode(sum)
	inv.fns["sum"] = func(inputs, outputs invoke.Args) error {
		outputs[0] = intVal(inputs[0].Int + inputs[1].Int)
		return nil
	}

	mult := graph.NewNode("mult")
	mult.FunctionID = "mult"
	mult.Inputs = []graph.Input{
		{Name: "a", DataType: datatype.Int, IsRequired: true, Binding: &graph.Binding{ProducerNodeID: ids["val1"], OutputIndex: 0, Behavior: graph.Always}},
		{Name: "b", DataType: datatype.Int, IsRequired: true, Binding: &graph.Binding{ProducerNodeID: ids["sum"], OutputIndex: 0, Behavior: graph.Always}},
	}
	mult.Outputs = []graph.Output{{Name: "out", DataType: datatype.Int}}
	ids["mult"] = mult.ID
	g.AddNode(mult)
	inv.fns["mult"] = func(inputs, outputs invoke.Args) error {
		outputs[0] = intVal(inputs[0].Int * inputs[1].Int)
		return nil
	}

	print := graph.NewNode("print")
	print.FunctionID = "print"
	print.IsOutput = true
	print.Inputs = []graph.Input{
		{Name: "value", DataType: datatype.Int, IsRequired: true, Binding: &graph.Binding{ProducerNodeID: ids["mult"], OutputIndex: 0, Behavior: graph.Always}},
	}
	ids["print"] = print.ID
	g.AddNode(print)
	inv.fns["print"] = func(inputs, _ invoke.Args) error {
		printed = append(printed, inputs[0].Int)
		return nil
	}

	require.NoError(t, g.Validate())
	return g, ids, inv, &printed
}

// TestExecutor_ComputeChain reproduces the shape of
// runtime_tests.rs's simple_compute_test: a fresh plan computes every node,
// and replanning with no edits re-executes only the sink, reusing the
// cached upstream values.
func TestExecutor_ComputeChain(t *testing.T) {
	g, _, inv, printed := buildComputeGraph(t)
	store := execute.NewContextStore()
	exec := execute.New(inv)

	first := plan.Preprocess(g, nil)
	require.NoError(t, exec.Run(context.Background(), g, first, store))
	require.Equal(t, []int64{21}, *printed) // sum=3+4=7, mult=3*7=21

	second := plan.Preprocess(g, first)
	for _, name := range []string{"val1", "val2", "sum", "mult"} {
		n, ok := second.NodeByName(name)
		require.True(t, ok)
		assert.False(t, n.ShouldExecute, "%s should not re-execute on a no-op replan", name)
	}
	printNode, ok := second.NodeByName("print")
	require.True(t, ok)
	assert.True(t, printNode.ShouldExecute, "the sink always re-executes")

	inv.calls = nil
	require.NoError(t, exec.Run(context.Background(), g, second, store))
	assert.Equal(t, []invoke.FunctionID{"print"}, inv.calls, "only the sink's function runs")
	assert.Equal(t, []int64{21, 21}, *printed, "the cached mult value feeds the sink unchanged")
}

// TestExecutor_RecoverableFailurePropagates checks spec.md §4.5/§7: a
// recoverable InvokeError marks its node, and every transitively downstream
// node, has_missing_inputs for the remainder of the run, without aborting
// the run or returning an error.
func TestExecutor_RecoverableFailurePropagates(t *testing.T) {
	g, _, inv, printed := buildComputeGraph(t)
	inv.fns["sum"] = func(_, _ invoke.Args) error {
		return errors.New("sum temporarily unavailable")
	}

	var failed []execute.NodeFailed
	bus := eventbus.New()
	bus.Subscribe("execute.node_failed", func(_ context.Context, e eventbus.Event) error {
		failed = append(failed, e.(execute.NodeFailed))
		return nil
	})

	exec := execute.New(inv)
	exec.Events = bus
	store := execute.NewContextStore()

	rt := plan.Preprocess(g, nil)
	err := exec.Run(context.Background(), g, rt, store)
	require.NoError(t, err, "a recoverable failure must not abort the run")

	sum, ok := rt.NodeByName("sum")
	require.True(t, ok)
	assert.True(t, sum.HasMissingInputs)

	mult, ok := rt.NodeByName("mult")
	require.True(t, ok)
	assert.True(t, mult.HasMissingInputs, "mult binds sum, so it inherits the failure")

	print, ok := rt.NodeByName("print")
	require.True(t, ok)
	assert.True(t, print.HasMissingInputs, "print binds mult transitively through the failure")

	assert.Empty(t, *printed, "print must never run downstream of the failed node")
	require.Len(t, failed, 1)
	assert.Equal(t, "sum", failed[0].Name)
	assert.False(t, failed[0].Fatal)
}

// TestExecutor_FatalFailureAbortsRun checks the other half of spec.md §7:
// an error satisfying invoke.Fatal stops the walk immediately and Run
// returns a non-nil error, rather than continuing to the next node.
func TestExecutor_FatalFailureAbortsRun(t *testing.T) {
	g, _, inv, printed := buildComputeGraph(t)
	inv.fns["sum"] = func(_, _ invoke.Args) error {
		return invoke.AsFatal(errors.New("catastrophic sum failure"))
	}

	exec := execute.New(inv)
	store := execute.NewContextStore()

	rt := plan.Preprocess(g, nil)
	err := exec.Run(context.Background(), g, rt, store)
	require.Error(t, err)

	for _, name := range []string{"mult", "print"} {
		assert.NotContains(t, inv.calls, invoke.FunctionID(name), "%s must not run after a fatal failure", name)
	}
	assert.Empty(t, *printed)
}

// TestExecutor_CancellationStopsCleanly checks spec.md §5: a cancelled
// context stops the walk between nodes, marks every remaining node
// should_execute=false, and returns no error.
func TestExecutor_CancellationStopsCleanly(t *testing.T) {
	g, _, inv, printed := buildComputeGraph(t)

	ctx, cancel := context.WithCancel(context.Background())

	// Cancel right after whichever node the producer-first walk reaches
	// first — the test doesn't depend on which one that is, only that
	// nothing else runs afterward.
	var cancelOnce bool
	for name, fn := range inv.fns {
		fn := fn
		inv.fns[name] = func(inputs, outputs invoke.Args) error {
			err := fn(inputs, outputs)
			if !cancelOnce {
				cancelOnce = true
				cancel()
			}
			return err
		}
	}

	var cancelled []execute.RunCancelled
	bus := eventbus.New()
	bus.Subscribe("execute.run_cancelled", func(_ context.Context, e eventbus.Event) error {
		cancelled = append(cancelled, e.(execute.RunCancelled))
		return nil
	})

	exec := execute.New(inv)
	exec.Events = bus
	store := execute.NewContextStore()

	rt := plan.Preprocess(g, nil)
	err := exec.Run(ctx, g, rt, store)
	require.NoError(t, err, "cancellation is not an error")

	require.Len(t, inv.calls, 1, "no node after the cancellation point should run")
	assert.Empty(t, *printed)
	require.Len(t, cancelled, 1)
	assert.Positive(t, cancelled[0].RemainingCount)

	// Run processes rt.Nodes in order, so the single call above came from
	// rt.Nodes[0]; everything from index 1 on is reached only after the
	// cancellation check fires and must be marked should_execute=false.
	for i := 1; i < len(rt.Nodes); i++ {
		assert.False(t, rt.Nodes[i].ShouldExecute, "%s must be marked should_execute=false once cancelled", rt.Nodes[i].Name)
	}
}

// TestContextStore_PruneRemovesDeletedNodes checks the Open Question
// resolution in DESIGN.md: a node's persistent context survives across
// RuntimeGraph generations and is only dropped once the node itself is
// removed from the Graph.
func TestContextStore_PruneRemovesDeletedNodes(t *testing.T) {
	g, ids, _, _ := buildComputeGraph(t)
	store := execute.NewContextStore()

	for _, id := range ids {
		store.Get(id)
	}
	require.Equal(t, len(ids), store.Len())

	g.RemoveNode(ids["val2"])
	store.Prune(g)
	assert.Equal(t, len(ids)-1, store.Len())
}
