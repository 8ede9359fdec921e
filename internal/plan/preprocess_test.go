package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeshop/dataflow/internal/datatype"
	"github.com/nodeshop/dataflow/internal/graph"
	"github.com/nodeshop/dataflow/internal/plan"
)

// buildFiveNodeGraph constructs spec.md §8's canonical scenario graph:
// val1, val2 (sources), sum (binds val1, val2), mult (binds val1, sum),
// print (sink, binds mult). All bindings start Always; all behaviors
// start Passive — the sink's Behavior is declared Passive too, since
// Preprocess always treats a sink as Active regardless (see passA).
func buildFiveNodeGraph(t *testing.T) (*graph.Graph, map[string]graph.ID) {
	t.Helper()

	g := graph.New()
	ids := make(map[string]graph.ID)

	val1 := graph.NewNode("val1")
	val1.Outputs = []graph.Output{{Name: "out", DataType: datatype.Int}}
	ids["val1"] = val1.ID
	g.AddNode(val1)

	val2 := graph.NewNode("val2")
	val2.Outputs = []graph.Output{{Name: "out", DataType: datatype.Int}}
	ids["val2"] = val2.ID
	g.AddNode(val2)

	sum := graph.NewNode("sum")
	sum.Inputs = []graph.Input{
		{Name: "a", DataType: datatype.Int, IsRequired: true, Binding: &graph.Binding{ProducerNodeID: ids["val1"], OutputIndex: 0, Behavior: graph.Always}},
		{Name: "b", DataType: datatype.Int, IsRequired: true, Binding: &graph.Binding{ProducerNodeID: ids["val2"], OutputIndex: 0, Behavior: graph.Always}},
	}
	sum.Outputs = []graph.Output{{Name: "out", DataType: datatype.Int}}
	ids["sum"] = sum.ID
	g.AddNode(sum)

	mult := graph.NewNode("mult")
	mult.Inputs = []graph.Input{
		{Name: "a", DataType: datatype.Int, IsRequired: true, Binding: &graph.Binding{ProducerNodeID: ids["val1"], OutputIndex: 0, Behavior: graph.Always}},
		{Name: "b", DataType: datatype.Int, IsRequired: true, Binding: &graph.Binding{ProducerNodeID: ids["sum"], OutputIndex: 0, Behavior: graph.Always}},
	}
	mult.Outputs = []graph.Output{{Name: "out", DataType: datatype.Int}}
	ids["mult"] = mult.ID
	g.AddNode(mult)

	print := graph.NewNode("print")
	print.IsOutput = true
	print.Inputs = []graph.Input{
		{Name: "value", DataType: datatype.Int, IsRequired: true, Binding: &graph.Binding{ProducerNodeID: ids["mult"], OutputIndex: 0, Behavior: graph.Always}},
	}
	ids["print"] = print.ID
	g.AddNode(print)

	require.NoError(t, g.Validate())
	return g, ids
}

func shouldExecute(t *testing.T, rg *plan.RuntimeGraph, name string) bool {
	t.Helper()
	n, ok := rg.NodeByName(name)
	require.True(t, ok, "expected %q in the plan", name)
	return n.ShouldExecute
}

func hasOutputs(t *testing.T, rg *plan.RuntimeGraph, name string) bool {
	t.Helper()
	n, ok := rg.NodeByName(name)
	require.True(t, ok, "expected %q in the plan", name)
	return n.HasOutputs
}

// Scenario 1: fresh plan, every node executes with no prior outputs.
func TestPreprocess_FreshPlan(t *testing.T) {
	g, _ := buildFiveNodeGraph(t)

	rg := plan.Preprocess(g, nil)

	require.Len(t, rg.Nodes, 5)
	for _, name := range []string{"val1", "val2", "sum", "mult", "print"} {
		assert.True(t, shouldExecute(t, rg, name), "%s should execute on a fresh plan", name)
		assert.True(t, hasOutputs(t, rg, name), "%s should have outputs after a fresh plan", name)
	}
}

// Scenario 2: replanning with no edits re-executes only the sink, which
// Preprocess always treats as Active.
func TestPreprocess_SecondPlanNoEdits(t *testing.T) {
	g, _ := buildFiveNodeGraph(t)

	first := plan.Preprocess(g, nil)
	second := plan.Preprocess(g, first)

	assert.False(t, shouldExecute(t, second, "val1"))
	assert.False(t, shouldExecute(t, second, "val2"))
	assert.False(t, shouldExecute(t, second, "sum"))
	assert.False(t, shouldExecute(t, second, "mult"))
	assert.True(t, shouldExecute(t, second, "print"), "a sink always re-executes")
}

// Scenario 3: marking val2 Active propagates freshness down the
// Always-chain to sum, mult, and print, but val1 stays cached.
func TestPreprocess_ActiveUpstreamPropagates(t *testing.T) {
	g, ids := buildFiveNodeGraph(t)

	first := plan.Preprocess(g, nil)
	second := plan.Preprocess(g, first)

	val2, _ := g.NodeByID(ids["val2"])
	val2.Behavior = graph.Active
	g.AddNode(val2)

	third := plan.Preprocess(g, second)

	assert.True(t, shouldExecute(t, third, "val2"))
	assert.True(t, shouldExecute(t, third, "sum"))
	assert.True(t, shouldExecute(t, third, "mult"))
	assert.True(t, shouldExecute(t, third, "print"))
	assert.False(t, shouldExecute(t, third, "val1"))
}

// Scenario 4: degrading mult's binding of sum's output to Once drops
// sum's edge_behavior to Once, so only the sink executes.
func TestPreprocess_OnceBindingDegradesEdgeBehavior(t *testing.T) {
	g, ids := buildFiveNodeGraph(t)

	first := plan.Preprocess(g, nil)
	second := plan.Preprocess(g, first)

	mult, _ := g.NodeByID(ids["mult"])
	mult.Inputs[1].Binding.Behavior = graph.Once
	g.AddNode(mult)

	third := plan.Preprocess(g, second)

	assert.False(t, shouldExecute(t, third, "val1"))
	assert.False(t, shouldExecute(t, third, "val2"))
	assert.False(t, shouldExecute(t, third, "sum"))
	assert.False(t, shouldExecute(t, third, "mult"))
	assert.True(t, shouldExecute(t, third, "print"))
}

// Scenario 5: removing val2 leaves sum with a missing required input,
// which propagates to mult and print; val2 itself drops out of the plan
// since it is no longer reachable from any sink.
func TestPreprocess_RemovedProducerCausesMissingInputs(t *testing.T) {
	g, ids := buildFiveNodeGraph(t)

	first := plan.Preprocess(g, nil)

	g.RemoveNode(ids["val2"])
	require.NoError(t, g.Validate())

	second := plan.Preprocess(g, first)

	require.Len(t, second.Nodes, 4)
	_, ok := second.NodeByName("val2")
	assert.False(t, ok)

	sum, ok := second.NodeByName("sum")
	require.True(t, ok)
	assert.True(t, sum.HasMissingInputs)
	assert.False(t, sum.ShouldExecute)

	mult, ok := second.NodeByName("mult")
	require.True(t, ok)
	assert.True(t, mult.HasMissingInputs)

	print, ok := second.NodeByName("print")
	require.True(t, ok)
	assert.True(t, print.HasMissingInputs)
}

// Scenario 6's graph shape, without an invoker (internal/execute checks a
// compute chain over this shape with its own values, not scenario 6's
// arithmetic): edge_behavior is computed as
// the join across every consumer path, not the first one discovered. val1
// feeds both sum and mult; even if one of those paths were Once, the
// other (Always) must win.
func TestPreprocess_EdgeBehaviorIsJoinedAcrossAllPaths(t *testing.T) {
	g, ids := buildFiveNodeGraph(t)

	sum, _ := g.NodeByID(ids["sum"])
	sum.Inputs[0].Binding.Behavior = graph.Once // val1 -> sum becomes Once
	g.AddNode(sum)
	// val1 -> mult remains Always, so val1's edge_behavior must stay Always.

	rg := plan.Preprocess(g, nil)
	val1, ok := rg.NodeByName("val1")
	require.True(t, ok)
	assert.Equal(t, graph.Always, val1.EdgeBehavior)
}

func TestPreprocess_UnreachableNodeNeverAppears(t *testing.T) {
	g, _ := buildFiveNodeGraph(t)

	orphan := graph.NewNode("orphan")
	orphan.Outputs = []graph.Output{{Name: "out", DataType: datatype.Int}}
	g.AddNode(orphan)
	require.NoError(t, g.Validate())

	rg := plan.Preprocess(g, nil)
	require.Len(t, rg.Nodes, 5)
	_, ok := rg.NodeByName("orphan")
	assert.False(t, ok)
}

func TestPreprocess_TotalBindingCount(t *testing.T) {
	g, _ := buildFiveNodeGraph(t)

	rg := plan.Preprocess(g, nil)

	val1, ok := rg.NodeByName("val1")
	require.True(t, ok)
	assert.Equal(t, 2, val1.TotalBindingCount, "val1 feeds both sum and mult")

	print, ok := rg.NodeByName("print")
	require.True(t, ok)
	assert.Equal(t, 0, print.TotalBindingCount, "nothing binds to the sink")
}
