package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records engine metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordNodeTask records one node task with its duration and error status.
	RecordNodeTask(ctx context.Context, nodeID string, duration time.Duration, err error)

	// RecordStep records a committed (or aborted) superstep.
	RecordStep(ctx context.Context, committed bool, duration time.Duration, frontierSize int)

	// RecordRun records a graph run completion.
	RecordRun(ctx context.Context, success bool, duration time.Duration)

	// RecordCheckpoint records a checkpoint put.
	RecordCheckpoint(ctx context.Context, threadID string, sizeBytes int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	nodeTasks      metric.Int64Counter
	nodeLatency    metric.Float64Histogram
	nodeErrors     metric.Int64Counter
	steps          metric.Int64Counter
	stepLatency    metric.Float64Histogram
	runs           metric.Int64Counter
	runLatency     metric.Float64Histogram
	checkpointSize metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the OTel metrics instance.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("stategraph")

	nodeTasks, err := meter.Int64Counter("stategraph.node.tasks",
		metric.WithDescription("Number of node tasks executed"),
	)
	if err != nil {
		return nil, err
	}

	nodeLatency, err := meter.Float64Histogram("stategraph.node.latency_ms",
		metric.WithDescription("Node task latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	nodeErrors, err := meter.Int64Counter("stategraph.node.errors",
		metric.WithDescription("Number of node task errors"),
	)
	if err != nil {
		return nil, err
	}

	steps, err := meter.Int64Counter("stategraph.steps",
		metric.WithDescription("Number of supersteps"),
	)
	if err != nil {
		return nil, err
	}

	stepLatency, err := meter.Float64Histogram("stategraph.step.latency_ms",
		metric.WithDescription("Superstep latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	runs, err := meter.Int64Counter("stategraph.runs",
		metric.WithDescription("Number of graph runs"),
	)
	if err != nil {
		return nil, err
	}

	runLatency, err := meter.Float64Histogram("stategraph.run.latency_ms",
		metric.WithDescription("Graph run latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	checkpointSize, err := meter.Int64Histogram("stategraph.checkpoint.size_bytes",
		metric.WithDescription("Checkpoint size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		nodeTasks:      nodeTasks,
		nodeLatency:    nodeLatency,
		nodeErrors:     nodeErrors,
		steps:          steps,
		stepLatency:    stepLatency,
		runs:           runs,
		runLatency:     runLatency,
		checkpointSize: checkpointSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordNodeTask records one node task.
func (m *otelMetrics) RecordNodeTask(ctx context.Context, nodeID string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("node_id", nodeID),
	}

	m.nodeTasks.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.nodeLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.nodeErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordStep records a superstep.
func (m *otelMetrics) RecordStep(ctx context.Context, committed bool, duration time.Duration, frontierSize int) {
	attrs := []attribute.KeyValue{
		attribute.Bool("committed", committed),
		attribute.Int("frontier_size", frontierSize),
	}
	m.steps.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.stepLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordRun records a graph run.
func (m *otelMetrics) RecordRun(ctx context.Context, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}
	m.runs.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.runLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordCheckpoint records a checkpoint put.
func (m *otelMetrics) RecordCheckpoint(ctx context.Context, threadID string, sizeBytes int64) {
	attrs := []attribute.KeyValue{
		attribute.String("thread_id", threadID),
	}
	m.checkpointSize.Record(ctx, sizeBytes, metric.WithAttributes(attrs...))
}
