// Package stategraph provides a checkpointed, superstep-based graph
// execution engine for stateful workflows.
//
// A graph is a set of named nodes connected by plain and conditional
// edges over a shared state schema. Execution proceeds in supersteps:
// every node in the current frontier runs concurrently against a
// read-consistent snapshot of the state, the partial deltas they return
// are folded into the state through per-channel reducers, and the next
// frontier is computed from the outgoing edges of the nodes that ran.
//
// Cycles are legal; a configurable recursion limit guards against
// runaway loops. After every superstep a checkpoint is persisted, keyed
// by thread ID, so runs can be resumed, replayed, and branched. Interrupt
// points pause execution before or after designated nodes and hand the
// caller a resumable cursor, enabling human-in-the-loop corrections via
// UpdateState.
//
// Basic usage:
//
//	schema := stategraph.NewSchema().
//	    AddChannel("messages", stategraph.Append(nil)).
//	    AddChannel("route", stategraph.LastValue())
//
//	g := stategraph.New(schema).
//	    AddNode("plan", planNode).
//	    AddNode("act", actNode).
//	    AddEdge("plan", "act").
//	    AddEdge("act", stategraph.END).
//	    SetEntry("plan")
//
//	compiled, err := g.Compile()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := stategraph.NewContext(context.Background())
//	final, err := compiled.Invoke(ctx, stategraph.State{"messages": []any{"hi"}})
package stategraph
