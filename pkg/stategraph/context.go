package stategraph

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/stategraph/pkg/stategraph/checkpoint"
	"github.com/randalmurphal/stategraph/pkg/stategraph/llm"
)

// Context provides execution context to nodes.
// It extends context.Context with engine services and run metadata.
//
// Context is immutable after creation. The scheduler derives a context
// per node task with the node ID, step, and an enriched logger.
type Context interface {
	context.Context

	// Services

	// Logger returns the configured logger, enriched with thread and
	// node context. Never returns nil; defaults to slog.Default().
	Logger() *slog.Logger

	// LLM returns the chat-model client, or nil if not configured.
	// Nodes should check for nil before using.
	LLM() llm.Client

	// Saver returns the checkpoint saver, or nil if not configured.
	Saver() checkpoint.Saver

	// Metadata

	// ThreadID returns the logical conversation/run identifier.
	// Auto-generated if not configured.
	ThreadID() string

	// NodeID returns the node currently executing.
	// Empty before execution starts.
	NodeID() string

	// Step returns the current superstep number, starting at 0.
	Step() int
}

// executionContext is the internal implementation of Context.
type executionContext struct {
	context.Context

	logger    *slog.Logger
	llmClient llm.Client
	saver     checkpoint.Saver
	threadID  string
	nodeID    string
	step      int
}

// Logger returns the configured logger.
func (c *executionContext) Logger() *slog.Logger {
	return c.logger
}

// LLM returns the chat-model client.
func (c *executionContext) LLM() llm.Client {
	return c.llmClient
}

// Saver returns the checkpoint saver.
func (c *executionContext) Saver() checkpoint.Saver {
	return c.saver
}

// ThreadID returns the thread identifier.
func (c *executionContext) ThreadID() string {
	return c.threadID
}

// NodeID returns the current node identifier.
func (c *executionContext) NodeID() string {
	return c.nodeID
}

// Step returns the current superstep number.
func (c *executionContext) Step() int {
	return c.step
}

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the logger for the context.
// The logger is enriched with thread_id, node_id, and step during
// execution.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		c.logger = logger
	}
}

// WithLLM sets the chat-model client for the context.
func WithLLM(client llm.Client) ContextOption {
	return func(c *executionContext) {
		c.llmClient = client
	}
}

// NewContext creates an execution context from a standard context.
//
// Example:
//
//	ctx := stategraph.NewContext(context.Background(),
//	    stategraph.WithLogger(myLogger))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(ec)
	}

	return ec
}

// forRun returns a copy carrying the run's thread ID and saver.
func (c *executionContext) forRun(threadID string, saver checkpoint.Saver) *executionContext {
	out := *c
	out.threadID = threadID
	out.saver = saver
	return &out
}

// forNode returns a copy scoped to one node task.
func (c *executionContext) forNode(nodeID string, step int) *executionContext {
	out := *c
	out.logger = c.logger.With("thread_id", c.threadID, "node_id", nodeID, "step", step)
	out.nodeID = nodeID
	out.step = step
	return &out
}

// asExecution normalizes any Context to the internal implementation so
// the scheduler can derive node-scoped copies.
func asExecution(ctx Context) *executionContext {
	if ec, ok := ctx.(*executionContext); ok {
		return ec
	}
	return &executionContext{
		Context:   ctx,
		logger:    ctx.Logger(),
		llmClient: ctx.LLM(),
		saver:     ctx.Saver(),
		threadID:  ctx.ThreadID(),
		nodeID:    ctx.NodeID(),
		step:      ctx.Step(),
	}
}
