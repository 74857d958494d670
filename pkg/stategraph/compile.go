package stategraph

import (
	"errors"
	"fmt"
	"log/slog"
)

// CompileOption configures the compiled graph.
type CompileOption func(*compileConfig)

// compileConfig holds compile-time configuration.
type compileConfig struct {
	interruptBefore []string
	interruptAfter  []string
}

// WithInterruptBefore pauses execution immediately before any of the
// named nodes run. The scheduler stops after the merge phase of the
// preceding superstep, with the paused frontier recorded in the last
// checkpoint, and returns an *Interrupt to the caller.
func WithInterruptBefore(nodes ...string) CompileOption {
	return func(c *compileConfig) {
		c.interruptBefore = append(c.interruptBefore, nodes...)
	}
}

// WithInterruptAfter pauses execution immediately after any of the
// named nodes run and their writes are merged and checkpointed.
func WithInterruptAfter(nodes ...string) CompileOption {
	return func(c *compileConfig) {
		c.interruptAfter = append(c.interruptAfter, nodes...)
	}
}

// Compile validates the graph and creates an executable CompiledGraph.
// Returns an error if validation fails. Multiple errors are joined.
//
// Validation checks (in order):
//  1. Construction errors recorded by the builder (duplicate nodes)
//  2. An entry point exists (SetEntry or an edge from START)
//  3. Entry points reference existing nodes
//  4. All edge endpoints reference existing nodes, START, or END
//  5. All conditional path map targets reference existing nodes or END
//  6. Every node has at least one outgoing edge (plain or conditional)
//  7. A path from the entry to END exists
//  8. Interrupt points reference existing nodes
//
// Unreachable nodes are logged as warnings but do not fail compilation.
// Compile is idempotent; each call returns a fresh immutable graph.
func (g *Graph) Compile(opts ...CompileOption) (*CompiledGraph, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	cfg := compileConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var errs []error
	errs = append(errs, g.buildErrs...)

	// 2 & 3. Entry points.
	entries := g.entryNodes()
	if len(entries) == 0 {
		errs = append(errs, ErrNoEntryPoint)
	}
	for _, id := range entries {
		if _, exists := g.nodes[id]; !exists && id != END {
			errs = append(errs, fmt.Errorf("%w: %s", ErrEntryNotFound, id))
		}
	}

	// 4. Edge endpoints.
	for from, targets := range g.edges {
		if from != START {
			if _, exists := g.nodes[from]; !exists {
				errs = append(errs, fmt.Errorf("%w: edge source %q", ErrNodeNotFound, from))
			}
		}
		for _, to := range targets {
			if to != END {
				if _, exists := g.nodes[to]; !exists {
					errs = append(errs, fmt.Errorf("%w: edge target %q", ErrNodeNotFound, to))
				}
			}
		}
	}

	// 5. Conditional edges: sources and the closed path map.
	for from, ce := range g.branches {
		if _, exists := g.nodes[from]; !exists {
			errs = append(errs, fmt.Errorf("%w: conditional edge source %q", ErrNodeNotFound, from))
		}
		for label, target := range ce.pathMap {
			if target != END {
				if _, exists := g.nodes[target]; !exists {
					errs = append(errs, fmt.Errorf("%w: path map %q=>%q", ErrNodeNotFound, label, target))
				}
			}
		}
	}

	// 6. Dead-end nodes.
	for _, id := range g.nodeOrder {
		if len(g.edges[id]) == 0 {
			if _, hasBranch := g.branches[id]; !hasBranch {
				errs = append(errs, fmt.Errorf("%w: %s", ErrDeadEndNode, id))
			}
		}
	}

	// 7. Path to END.
	if len(entries) > 0 && len(errs) == 0 {
		if !g.hasPathToEnd(entries) {
			errs = append(errs, ErrNoPathToEnd)
		}
	}

	// 8. Interrupt points.
	for _, id := range append(append([]string{}, cfg.interruptBefore...), cfg.interruptAfter...) {
		if _, exists := g.nodes[id]; !exists {
			errs = append(errs, fmt.Errorf("%w: interrupt point %q", ErrNodeNotFound, id))
		}
	}

	g.warnUnreachableNodes(entries)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return g.buildCompiledGraph(entries, cfg), nil
}

// entryNodes returns the initial frontier: SetEntry plus START edges,
// deduplicated, in declaration order.
func (g *Graph) entryNodes() []string {
	var entries []string
	seen := make(map[string]bool)
	if g.entry != "" {
		entries = append(entries, g.entry)
		seen[g.entry] = true
	}
	for _, to := range g.edges[START] {
		if !seen[to] {
			entries = append(entries, to)
			seen[to] = true
		}
	}
	return entries
}

// hasPathToEnd checks that END is reachable from at least one entry
// using reverse propagation. Conditional edges are assumed able to
// reach any target in their path map.
func (g *Graph) hasPathToEnd(entries []string) bool {
	canReachEnd := map[string]bool{END: true}

	changed := true
	for changed {
		changed = false

		for from, targets := range g.edges {
			if canReachEnd[from] {
				continue
			}
			for _, to := range targets {
				if canReachEnd[to] {
					canReachEnd[from] = true
					changed = true
					break
				}
			}
		}

		for from, ce := range g.branches {
			if canReachEnd[from] {
				continue
			}
			for _, target := range ce.pathMap {
				if canReachEnd[target] {
					canReachEnd[from] = true
					changed = true
					break
				}
			}
		}
	}

	for _, id := range entries {
		if canReachEnd[id] {
			return true
		}
	}
	return false
}

// warnUnreachableNodes logs warnings for nodes not reachable from any
// entry point.
func (g *Graph) warnUnreachableNodes(entries []string) {
	if len(entries) == 0 {
		return
	}

	reachable := make(map[string]bool)
	queue := append([]string{}, entries...)
	for _, id := range entries {
		reachable[id] = true
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, target := range g.edges[current] {
			if target != END && !reachable[target] {
				reachable[target] = true
				queue = append(queue, target)
			}
		}
		if ce, ok := g.branches[current]; ok {
			for _, target := range ce.pathMap {
				if target != END && !reachable[target] {
					reachable[target] = true
					queue = append(queue, target)
				}
			}
		}
	}

	for _, id := range g.nodeOrder {
		if !reachable[id] {
			slog.Warn("node is unreachable from entry", "node_id", id)
		}
	}
}

// buildCompiledGraph snapshots the builder into an immutable executable.
func (g *Graph) buildCompiledGraph(entries []string, cfg compileConfig) *CompiledGraph {
	nodes := make(map[string]NodeFunc, len(g.nodes))
	for id, fn := range g.nodes {
		nodes[id] = fn
	}

	nodeOrder := append([]string{}, g.nodeOrder...)
	nodeIndex := make(map[string]int, len(nodeOrder))
	for i, id := range nodeOrder {
		nodeIndex[id] = i
	}

	edges := make(map[string][]string, len(g.edges))
	for from, targets := range g.edges {
		edges[from] = append([]string{}, targets...)
	}

	branches := make(map[string]conditionalEdge, len(g.branches))
	for from, ce := range g.branches {
		pm := make(map[string]string, len(ce.pathMap))
		for label, target := range ce.pathMap {
			pm[label] = target
		}
		branches[from] = conditionalEdge{router: ce.router, pathMap: pm}
	}

	interruptBefore := make(map[string]bool, len(cfg.interruptBefore))
	for _, id := range cfg.interruptBefore {
		interruptBefore[id] = true
	}
	interruptAfter := make(map[string]bool, len(cfg.interruptAfter))
	for _, id := range cfg.interruptAfter {
		interruptAfter[id] = true
	}

	return &CompiledGraph{
		schema:          g.schema,
		nodes:           nodes,
		nodeOrder:       nodeOrder,
		nodeIndex:       nodeIndex,
		edges:           edges,
		branches:        branches,
		entries:         append([]string{}, entries...),
		interruptBefore: interruptBefore,
		interruptAfter:  interruptAfter,
	}
}
