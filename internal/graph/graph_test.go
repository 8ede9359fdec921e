package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeshop/dataflow/internal/datatype"
	"github.com/nodeshop/dataflow/internal/graph"
)

// buildFiveNodeGraph constructs the canonical five-node test graph from
// spec.md §8: val1, val2 (sources), sum (binds val1, val2), mult (binds
// val1, sum), print (sink, binds mult). All bindings Always, all
// behaviors Passive, unless the caller mutates the result afterward.
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

	return g, ids
}

func TestValidate_CanonicalGraph(t *testing.T) {
	g, _ := buildFiveNodeGraph(t)
	require.NoError(t, g.Validate())
}

func TestValidate_NilNodeID(t *testing.T) {
	g := graph.New()
	n := graph.NewNode("broken")
	n.ID = graph.NilID
	g.AddNode(n)
	err := g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil identifier")
}

func TestValidate_UnknownProducer(t *testing.T) {
	g := graph.New()
	n := graph.NewNode("consumer")
	n.Inputs = []graph.Input{
		{Name: "in", DataType: datatype.Int, IsRequired: true, Binding: &graph.Binding{ProducerNodeID: graph.NewID(), OutputIndex: 0}},
	}
	g.AddNode(n)
	err := g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown producer")
}

func TestValidate_OutOfRangeOutputIndex(t *testing.T) {
	g, ids := buildFiveNodeGraph(t)
	val1, _ := g.NodeByID(ids["val1"])
	sum, _ := g.NodeByID(ids["sum"])
	sum.Inputs[0].Binding.OutputIndex = len(val1.Outputs)
	g.AddNode(sum)

	err := g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out-of-range output index")
}

func TestValidate_TypeMismatch(t *testing.T) {
	g, ids := buildFiveNodeGraph(t)
	sum, _ := g.NodeByID(ids["sum"])
	sum.Inputs[0].DataType = datatype.String
	g.AddNode(sum)

	err := g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot accept")
}

func TestValidate_Cycle(t *testing.T) {
	g := graph.New()
	a := graph.NewNode("a")
	a.Outputs = []graph.Output{{Name: "out", DataType: datatype.Int}}
	b := graph.NewNode("b")
	b.Outputs = []graph.Output{{Name: "out", DataType: datatype.Int}}

	a.Inputs = []graph.Input{
		{Name: "in", DataType: datatype.Int, IsRequired: true, Binding: &graph.Binding{ProducerNodeID: b.ID, OutputIndex: 0, Behavior: graph.Always}},
	}
	b.Inputs = []graph.Input{
		{Name: "in", DataType: datatype.Int, IsRequired: true, Binding: &graph.Binding{ProducerNodeID: a.ID, OutputIndex: 0, Behavior: graph.Always}},
	}

	g.AddNode(a)
	g.AddNode(b)

	err := g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestRemoveNode_ClearsDownstreamBindings(t *testing.T) {
	g, ids := buildFiveNodeGraph(t)

	g.RemoveNode(ids["val2"])

	sum, ok := g.NodeByID(ids["sum"])
	require.True(t, ok)
	assert.Nil(t, sum.Inputs[1].Binding, "binding to the removed producer should be cleared")
	require.NoError(t, g.Validate())
}

func TestRemoveSubGraph_RemovesOwnedNodes(t *testing.T) {
	g := graph.New()
	sg := graph.NewSubGraph("inner")
	g.AddSubGraph(sg)

	n := graph.NewNode("inner-node")
	n.SubgraphID = sg.ID
	g.AddNode(n)

	g.RemoveSubGraph(sg.ID)

	_, ok := g.NodeByID(n.ID)
	assert.False(t, ok)
	_, ok = g.SubGraphByID(sg.ID)
	assert.False(t, ok)
}

func TestJSONRoundTrip(t *testing.T) {
	g, _ := buildFiveNodeGraph(t)
	require.NoError(t, g.Validate())

	data, err := g.ToJSON()
	require.NoError(t, err)

	restored, err := graph.FromJSON(data)
	require.NoError(t, err)
	require.NoError(t, restored.Validate())

	assert.Equal(t, len(g.Nodes()), len(restored.Nodes()))
}
