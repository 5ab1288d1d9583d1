// Package observability provides structured logging, metrics and tracing for
// the reconciliation pipeline.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// NewLogger creates a text slog logger at the given level.
// Unknown levels fall back to info.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// EnrichLogger adds reconciliation context to a logger.
// Returns a new logger with run_id, country, and stage fields.
func EnrichLogger(logger *slog.Logger, runID, country, stage string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("country", country),
		slog.String("stage", stage),
	)
}

// LogRunStart logs the start of a reconciliation run.
func LogRunStart(logger *slog.Logger, runID string, countries []string) {
	if logger == nil {
		return
	}
	logger.Info("reconciliation run starting",
		slog.String("run_id", runID),
		slog.Int("countries", len(countries)),
	)
}

// LogRunComplete logs successful run completion.
func LogRunComplete(logger *slog.Logger, runID string, durationMs float64, countryCount int) {
	if logger == nil {
		return
	}
	logger.Info("reconciliation run completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("countries_processed", countryCount),
	)
}

// LogRunError logs run failure.
func LogRunError(logger *slog.Logger, runID string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("reconciliation run failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogStageStart logs stage execution start.
func LogStageStart(logger *slog.Logger, country, stage string) {
	if logger == nil {
		return
	}
	logger.Debug("stage starting",
		slog.String("country", country),
		slog.String("stage", stage),
	)
}

// LogStageSkipped logs a stage skipped because its checkpoint is finished.
func LogStageSkipped(logger *slog.Logger, country, stage string) {
	if logger == nil {
		return
	}
	logger.Debug("stage already finished, skipping",
		slog.String("country", country),
		slog.String("stage", stage),
	)
}

// LogStageComplete logs successful stage completion.
func LogStageComplete(logger *slog.Logger, country, stage string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("stage completed",
		slog.String("country", country),
		slog.String("stage", stage),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogStageError logs stage failure.
func LogStageError(logger *slog.Logger, country, stage string, err error) {
	if logger == nil {
		return
	}
	logger.Error("stage failed",
		slog.String("country", country),
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
}

// LogCountrySkipped logs a country dropped from the run after a stage failure.
func LogCountrySkipped(logger *slog.Logger, country string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("country skipped",
		slog.String("country", country),
		slog.String("error", err.Error()),
	)
}

// LogCheckpointWrite logs a checkpoint mutation.
func LogCheckpointWrite(logger *slog.Logger, country, stage, status string) {
	if logger == nil {
		return
	}
	logger.Debug("checkpoint saved",
		slog.String("country", country),
		slog.String("stage", stage),
		slog.String("status", status),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
