// Package observability provides structured logging, metrics, and
// distributed tracing for graph runs.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import "log/slog"

// EnrichLogger adds run context to a logger.
// Returns a new logger with thread_id, node_id, and step fields.
func EnrichLogger(logger *slog.Logger, threadID, nodeID string, step int) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("thread_id", threadID),
		slog.String("node_id", nodeID),
		slog.Int("step", step),
	)
}

// LogRunStart logs the start of a graph run.
func LogRunStart(logger *slog.Logger, threadID string, frontier []string) {
	if logger == nil {
		return
	}
	logger.Info("graph run starting",
		slog.String("thread_id", threadID),
		slog.Any("frontier", frontier),
	)
}

// LogRunComplete logs successful graph run completion.
func LogRunComplete(logger *slog.Logger, threadID string, durationMs float64, steps int) {
	if logger == nil {
		return
	}
	logger.Info("graph run completed",
		slog.String("thread_id", threadID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("steps", steps),
	)
}

// LogRunError logs graph run failure.
func LogRunError(logger *slog.Logger, threadID string, err error, durationMs float64, step int) {
	if logger == nil {
		return
	}
	logger.Error("graph run failed",
		slog.String("thread_id", threadID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.Int("step", step),
	)
}

// LogRunInterrupted logs a run pausing at an interrupt point.
func LogRunInterrupted(logger *slog.Logger, threadID, nodeID string, step int) {
	if logger == nil {
		return
	}
	logger.Info("graph run interrupted",
		slog.String("thread_id", threadID),
		slog.String("node_id", nodeID),
		slog.Int("step", step),
	)
}

// LogStepStart logs the start of a superstep.
func LogStepStart(logger *slog.Logger, step int, frontier []string) {
	if logger == nil {
		return
	}
	logger.Debug("superstep starting",
		slog.Int("step", step),
		slog.Any("frontier", frontier),
	)
}

// LogStepComplete logs the commit of a superstep.
func LogStepComplete(logger *slog.Logger, step int, durationMs float64, writes int) {
	if logger == nil {
		return
	}
	logger.Debug("superstep committed",
		slog.Int("step", step),
		slog.Float64("duration_ms", durationMs),
		slog.Int("writes", writes),
	)
}

// LogNodeStart logs node task start.
func LogNodeStart(logger *slog.Logger, nodeID string, step int) {
	if logger == nil {
		return
	}
	logger.Debug("node starting",
		slog.String("node_id", nodeID),
		slog.Int("step", step),
	)
}

// LogNodeComplete logs successful node task completion.
func LogNodeComplete(logger *slog.Logger, nodeID string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("node completed",
		slog.String("node_id", nodeID),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNodeError logs node task failure.
func LogNodeError(logger *slog.Logger, nodeID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("node failed",
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
	)
}

// LogCheckpoint logs checkpoint creation.
func LogCheckpoint(logger *slog.Logger, checkpointID string, step int) {
	if logger == nil {
		return
	}
	logger.Debug("checkpoint saved",
		slog.String("checkpoint_id", checkpointID),
		slog.Int("step", step),
	)
}

// LogCheckpointError logs checkpoint failure.
func LogCheckpointError(logger *slog.Logger, threadID, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("checkpoint failed",
		slog.String("thread_id", threadID),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}
