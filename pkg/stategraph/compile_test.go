package stategraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCompile_LinearGraph compiles a minimal valid graph.
func TestCompile_LinearGraph(t *testing.T) {
	cg, err := linearGraph().Compile()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, cg.EntryNodes())
	assert.Equal(t, []string{"a", "b"}, cg.NodeIDs())
}

// TestCompile_NoEntryPoint fails without SetEntry or a START edge.
func TestCompile_NoEntryPoint(t *testing.T) {
	g := New(nil).AddNode("a", noopNode).AddEdge("a", END)

	_, err := g.Compile()
	assert.ErrorIs(t, err, ErrNoEntryPoint)
}

// TestCompile_StartEdgeIsEntry accepts AddEdge(START, ...) as the entry.
func TestCompile_StartEdgeIsEntry(t *testing.T) {
	g := New(nil).
		AddNode("a", noopNode).
		AddEdge(START, "a").
		AddEdge("a", END)

	cg, err := g.Compile()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, cg.EntryNodes())
}

// TestCompile_MultipleEntries_Deduplicated merges SetEntry and START
// edges without duplicates, in declaration order.
func TestCompile_MultipleEntries_Deduplicated(t *testing.T) {
	g := New(nil).
		AddNode("a", noopNode).
		AddNode("b", noopNode).
		SetEntry("a").
		AddEdge(START, "a").
		AddEdge(START, "b").
		AddEdge("a", END).
		AddEdge("b", END)

	cg, err := g.Compile()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cg.EntryNodes())
}

// TestCompile_EntryNotFound fails when the entry references a missing node.
func TestCompile_EntryNotFound(t *testing.T) {
	g := New(nil).AddNode("a", noopNode).AddEdge("a", END).SetEntry("ghost")

	_, err := g.Compile()
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

// TestCompile_EdgeTargetNotFound fails on unknown edge targets.
func TestCompile_EdgeTargetNotFound(t *testing.T) {
	g := New(nil).
		AddNode("a", noopNode).
		AddEdge("a", "ghost").
		SetEntry("a")

	_, err := g.Compile()
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

// TestCompile_EdgeSourceNotFound fails on unknown edge sources.
func TestCompile_EdgeSourceNotFound(t *testing.T) {
	g := New(nil).
		AddNode("a", noopNode).
		AddEdge("a", END).
		AddEdge("ghost", END).
		SetEntry("a")

	_, err := g.Compile()
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

// TestCompile_PathMapTargetNotFound validates the closed branch table.
func TestCompile_PathMapTargetNotFound(t *testing.T) {
	router := func(ctx Context, s State) []string { return RouteTo("x") }
	g := New(nil).
		AddNode("a", noopNode).
		AddConditionalEdges("a", router, map[string]string{"x": "ghost"}).
		SetEntry("a")

	_, err := g.Compile()
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

// TestCompile_DeadEndNode fails when a node has no outgoing edges.
func TestCompile_DeadEndNode(t *testing.T) {
	g := New(nil).
		AddNode("a", noopNode).
		AddNode("stuck", noopNode).
		AddEdge("a", "stuck").
		AddEdge("a", END).
		SetEntry("a")

	_, err := g.Compile()
	assert.ErrorIs(t, err, ErrDeadEndNode)
}

// TestCompile_ConditionalEdgeSatisfiesDeadEndCheck accepts a node whose
// only exit is a router.
func TestCompile_ConditionalEdgeSatisfiesDeadEndCheck(t *testing.T) {
	router := func(ctx Context, s State) []string { return RouteTo("done") }
	g := New(nil).
		AddNode("a", noopNode).
		AddConditionalEdges("a", router, map[string]string{"done": END}).
		SetEntry("a")

	_, err := g.Compile()
	assert.NoError(t, err)
}

// TestCompile_NoPathToEnd fails when END is unreachable.
func TestCompile_NoPathToEnd(t *testing.T) {
	g := New(nil).
		AddNode("a", noopNode).
		AddNode("b", noopNode).
		AddEdge("a", "b").
		AddEdge("b", "a").
		SetEntry("a")

	_, err := g.Compile()
	assert.ErrorIs(t, err, ErrNoPathToEnd)
}

// TestCompile_CycleWithExit accepts cycles that can reach END.
func TestCompile_CycleWithExit(t *testing.T) {
	router := func(ctx Context, s State) []string { return RouteTo("again") }
	g := New(nil).
		AddNode("a", noopNode).
		AddNode("b", noopNode).
		AddEdge("a", "b").
		AddConditionalEdges("b", router, map[string]string{
			"again": "a",
			"done":  END,
		}).
		SetEntry("a")

	_, err := g.Compile()
	assert.NoError(t, err)
}

// TestCompile_InterruptPointNotFound validates interrupt node IDs.
func TestCompile_InterruptPointNotFound(t *testing.T) {
	_, err := linearGraph().Compile(WithInterruptBefore("ghost"))
	assert.ErrorIs(t, err, ErrNodeNotFound)

	_, err = linearGraph().Compile(WithInterruptAfter("ghost"))
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

// TestCompile_InterruptPoints_Recorded exposes configured interrupts.
func TestCompile_InterruptPoints_Recorded(t *testing.T) {
	cg, err := linearGraph().Compile(
		WithInterruptBefore("b"),
		WithInterruptAfter("a"),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, cg.InterruptsBefore())
	assert.Equal(t, []string{"a"}, cg.InterruptsAfter())
}

// TestCompile_Idempotent returns independent compiled graphs.
func TestCompile_Idempotent(t *testing.T) {
	g := linearGraph()

	cg1, err := g.Compile()
	require.NoError(t, err)
	cg2, err := g.Compile()
	require.NoError(t, err)

	assert.NotSame(t, cg1, cg2)
	assert.Equal(t, cg1.NodeIDs(), cg2.NodeIDs())
}

// TestCompile_BuilderMutationAfterCompile_DoesNotLeak verifies the
// compiled graph is a snapshot.
func TestCompile_BuilderMutationAfterCompile_DoesNotLeak(t *testing.T) {
	g := linearGraph()
	cg, err := g.Compile()
	require.NoError(t, err)

	g.AddNode("c", noopNode).AddEdge("c", END)
	assert.False(t, cg.HasNode("c"))
}

// TestCompiledGraph_Successors returns plain edge targets.
func TestCompiledGraph_Successors(t *testing.T) {
	cg, err := linearGraph().Compile()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, cg.Successors("a"))
	assert.Equal(t, []string{END}, cg.Successors("b"))
}
