package stategraph

import (
	"github.com/randalmurphal/stategraph/pkg/stategraph/checkpoint"
	"github.com/randalmurphal/stategraph/pkg/stategraph/event"
	"github.com/randalmurphal/stategraph/pkg/stategraph/observability"
)

// DefaultRecursionLimit is the default superstep ceiling.
// Cycles are legal, so every run carries a ceiling; raise it per run
// with WithRecursionLimit when deep replanning loops are expected.
const DefaultRecursionLimit = 25

// StreamMode selects what Stream emits per superstep.
type StreamMode int

const (
	// StreamValues emits the full post-merge state after each superstep.
	StreamValues StreamMode = iota
	// StreamUpdates emits only the per-node deltas of each superstep.
	StreamUpdates
	// StreamEvents emits granular engine events (node start/finish,
	// checkpoint saved) in addition to step commits.
	StreamEvents
)

// runConfig holds configuration for one graph run.
type runConfig struct {
	threadID       string
	checkpointID   string
	saver          checkpoint.Saver
	recursionLimit int
	streamMode     StreamMode
	bus            *event.Bus

	metrics        observability.MetricsRecorder
	metricsEnabled bool
	spans          observability.SpanManager
	tracingEnabled bool
}

// defaultRunConfig returns the default run configuration.
func defaultRunConfig() runConfig {
	return runConfig{
		recursionLimit: DefaultRecursionLimit,
		metrics:        observability.NoopMetrics{},
		spans:          observability.NoopSpanManager{},
	}
}

// RunOption configures a single Invoke or Stream call.
type RunOption func(*runConfig)

// WithThreadID selects the checkpoint chain to read and write.
// Required when a saver is configured. Two concurrent runs must not
// share a thread ID; the engine does not serialize cross-process
// writers.
func WithThreadID(id string) RunOption {
	return func(c *runConfig) {
		c.threadID = id
	}
}

// WithCheckpointID pins the run to a specific historical checkpoint
// instead of the thread's latest, enabling replay and branching.
func WithCheckpointID(id string) RunOption {
	return func(c *runConfig) {
		c.checkpointID = id
	}
}

// WithSaver enables checkpointing through the given saver.
// A checkpoint is persisted after every committed superstep.
func WithSaver(s checkpoint.Saver) RunOption {
	return func(c *runConfig) {
		c.saver = s
	}
}

// WithRecursionLimit overrides the superstep ceiling for this run.
// Values below 1 are ignored.
func WithRecursionLimit(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.recursionLimit = n
		}
	}
}

// WithStreamMode selects what Stream emits. Ignored by Invoke.
func WithStreamMode(mode StreamMode) RunOption {
	return func(c *runConfig) {
		c.streamMode = mode
	}
}

// WithEventBus publishes engine events to the given bus during the run.
func WithEventBus(bus *event.Bus) RunOption {
	return func(c *runConfig) {
		c.bus = bus
	}
}

// WithMetrics records run metrics through the given recorder.
func WithMetrics(m observability.MetricsRecorder) RunOption {
	return func(c *runConfig) {
		if m != nil {
			c.metrics = m
			c.metricsEnabled = true
		}
	}
}

// WithTracing enables OTel span creation for the run, its supersteps,
// and its node tasks.
func WithTracing() RunOption {
	return func(c *runConfig) {
		c.tracingEnabled = true
		c.spans = observability.NewSpanManager()
	}
}
