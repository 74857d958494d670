package stategraph

import "sort"

// CompiledGraph is an immutable, executable graph.
// It is created by calling Compile() on a Graph builder.
//
// CompiledGraph is thread-safe and can be used concurrently for any
// number of Invoke and Stream calls; per-run state lives entirely in
// the run, never in the graph. The only cross-run shared resource is
// the checkpoint saver, and writers to the same thread ID must be
// serialized by the caller.
type CompiledGraph struct {
	schema    *Schema
	nodes     map[string]NodeFunc
	nodeOrder []string
	nodeIndex map[string]int
	edges     map[string][]string
	branches  map[string]conditionalEdge
	entries   []string

	interruptBefore map[string]bool
	interruptAfter  map[string]bool
}

// Schema returns the state schema the graph executes over.
func (cg *CompiledGraph) Schema() *Schema {
	return cg.schema
}

// EntryNodes returns the initial frontier, in declaration order.
func (cg *CompiledGraph) EntryNodes() []string {
	return append([]string{}, cg.entries...)
}

// NodeIDs returns all node identifiers in registration order.
func (cg *CompiledGraph) NodeIDs() []string {
	return append([]string{}, cg.nodeOrder...)
}

// HasNode checks if a node exists in the graph.
func (cg *CompiledGraph) HasNode(id string) bool {
	_, exists := cg.nodes[id]
	return exists
}

// Successors returns the plain-edge targets of the given node.
// Conditional targets are runtime-determined and not included.
func (cg *CompiledGraph) Successors(id string) []string {
	return append([]string{}, cg.edges[id]...)
}

// IsConditional returns true if the node has a conditional edge.
func (cg *CompiledGraph) IsConditional(id string) bool {
	_, exists := cg.branches[id]
	return exists
}

// InterruptsBefore returns the configured before-mode interrupt points.
func (cg *CompiledGraph) InterruptsBefore() []string {
	return sortedKeys(cg.interruptBefore)
}

// InterruptsAfter returns the configured after-mode interrupt points.
func (cg *CompiledGraph) InterruptsAfter() []string {
	return sortedKeys(cg.interruptAfter)
}

// getNode returns the node function for the given ID.
func (cg *CompiledGraph) getNode(id string) (NodeFunc, bool) {
	fn, exists := cg.nodes[id]
	return fn, exists
}

// sortFrontier orders a frontier by node registration order so that
// execution and merge order are deterministic. END sorts last.
func (cg *CompiledGraph) sortFrontier(frontier []string) []string {
	out := append([]string{}, frontier...)
	sort.SliceStable(out, func(i, j int) bool {
		return cg.frontierRank(out[i]) < cg.frontierRank(out[j])
	})
	return out
}

// frontierRank maps a frontier member to its ordering key.
func (cg *CompiledGraph) frontierRank(id string) int {
	if id == END {
		return len(cg.nodeOrder)
	}
	if idx, ok := cg.nodeIndex[id]; ok {
		return idx
	}
	return len(cg.nodeOrder) + 1
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
