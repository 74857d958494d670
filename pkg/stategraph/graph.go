package stategraph

import (
	"fmt"
	"strings"
	"sync"
)

// Graph is a mutable builder for creating execution graphs.
// Use New to create a builder, then chain AddNode, AddEdge,
// AddConditionalEdges, and SetEntry calls to define the workflow.
//
// Graph is NOT thread-safe during building. Construct the graph from a
// single goroutine, then call Compile() to create an immutable
// CompiledGraph that can be safely shared.
//
// Example:
//
//	g := stategraph.New(schema).
//	    AddNode("fetch", fetchNode).
//	    AddNode("process", processNode).
//	    AddEdge("fetch", "process").
//	    AddEdge("process", stategraph.END).
//	    SetEntry("fetch")
//
//	compiled, err := g.Compile()
type Graph struct {
	mu     sync.RWMutex
	schema *Schema

	nodes     map[string]NodeFunc
	nodeOrder []string
	edges     map[string][]string
	branches  map[string]conditionalEdge
	entry     string

	// Construction errors (duplicate nodes) accumulate here and are
	// surfaced by Compile, keeping the builder chainable.
	buildErrs []error
}

// conditionalEdge pairs a router with its closed branch-label table.
type conditionalEdge struct {
	router  RouterFunc
	pathMap map[string]string
}

// New creates a new graph builder over the given state schema.
// A nil schema is valid: every channel then uses last-write-wins.
func New(schema *Schema) *Graph {
	if schema == nil {
		schema = NewSchema()
	}
	return &Graph{
		schema:   schema,
		nodes:    make(map[string]NodeFunc),
		edges:    make(map[string][]string),
		branches: make(map[string]conditionalEdge),
	}
}

// AddNode adds a named node to the graph.
// Returns the graph for method chaining.
//
// Registration order matters: within a superstep, deltas to the same
// channel fold in the order nodes were registered, and frontiers are
// ordered the same way.
//
// Panics if:
//   - id is empty
//   - id is the reserved START or END sentinel (case-insensitive)
//   - id contains whitespace
//   - fn is nil
//
// Registering the same id twice records ErrDuplicateNode, reported by
// Compile().
func (g *Graph) AddNode(id string, fn NodeFunc) *Graph {
	if id == "" {
		panic("stategraph: node ID cannot be empty")
	}

	idLower := strings.ToLower(id)
	if idLower == "end" || idLower == END || idLower == "start" || idLower == START {
		panic("stategraph: node ID cannot be a reserved sentinel")
	}

	if strings.ContainsAny(id, " \t\n\r") {
		panic("stategraph: node ID cannot contain whitespace")
	}

	if fn == nil {
		panic("stategraph: node function cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; exists {
		g.buildErrs = append(g.buildErrs, fmt.Errorf("%w: %s", ErrDuplicateNode, id))
		return g
	}

	g.nodes[id] = fn
	g.nodeOrder = append(g.nodeOrder, id)
	return g
}

// AddEdge adds an unconditional edge from one node to another.
// The source can be stategraph.START and the target can be
// stategraph.END. Returns the graph for method chaining.
//
// A node may have multiple outgoing edges; all targets join the next
// frontier after the node runs (fan-out). Edge validation happens at
// Compile() time, so edges can be added in any order.
func (g *Graph) AddEdge(from, to string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.edges[from] = append(g.edges[from], to)
	return g
}

// AddConditionalEdges adds a conditional edge where a RouterFunc
// selects one or more branches at runtime based on the post-merge
// state. Returns the graph for method chaining.
//
// pathMap is a closed table from branch label to node ID (or END).
// Every target is validated at Compile() time; at runtime the router
// may only return labels present in the table. This keeps the set of
// reachable nodes auditable without running the graph.
//
// A node with a conditional edge may also have plain edges; the next
// frontier is the union of both.
func (g *Graph) AddConditionalEdges(from string, router RouterFunc, pathMap map[string]string) *Graph {
	if router == nil {
		panic("stategraph: router function cannot be nil")
	}
	if len(pathMap) == 0 {
		panic("stategraph: path map cannot be empty")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	pm := make(map[string]string, len(pathMap))
	for label, target := range pathMap {
		pm[label] = target
	}
	g.branches[from] = conditionalEdge{router: router, pathMap: pm}
	return g
}

// SetEntry designates the entry point node, equivalent to
// AddEdge(START, id). Returns the graph for method chaining.
//
// Entry validation happens at Compile() time.
func (g *Graph) SetEntry(id string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.entry = id
	return g
}

// Schema returns the state schema the graph was built over.
func (g *Graph) Schema() *Schema {
	return g.schema
}
