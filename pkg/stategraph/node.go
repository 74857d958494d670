package stategraph

// START is the virtual entry node identifier.
// Use it as an edge source to designate entry nodes; SetEntry is
// shorthand for AddEdge(START, id).
const START = "__start__"

// END is the terminal node identifier.
// Use it as an edge target to indicate the graph should terminate.
const END = "__end__"

// NodeFunc is the signature for all node functions.
// Nodes receive the execution context and a read-consistent snapshot of
// the state as of the start of the superstep, and return a partial
// delta containing only the channels they write.
//
// Returning a nil delta is valid and means "no writes". Nodes must not
// mutate the snapshot; all effects flow through the returned delta.
//
// Example:
//
//	func plan(ctx stategraph.Context, s stategraph.State) (stategraph.State, error) {
//	    return stategraph.State{"messages": []any{"planned"}}, nil
//	}
type NodeFunc func(ctx Context, state State) (State, error)

// RouterFunc selects outgoing branches for a conditional edge.
// It runs against the post-merge state of the superstep in which the
// source node executed, and returns one or more branch labels from the
// path map registered with AddConditionalEdges.
//
// Returning an unknown label or an empty slice is a runtime error.
//
// Example:
//
//	func route(ctx stategraph.Context, s stategraph.State) []string {
//	    if s.GetString("which") == "cd" {
//	        return []string{"c", "d"}
//	    }
//	    return []string{"b", "c"}
//	}
type RouterFunc func(ctx Context, state State) []string

// RouteTo is a convenience for routers that select a single branch.
func RouteTo(label string) []string {
	return []string{label}
}
