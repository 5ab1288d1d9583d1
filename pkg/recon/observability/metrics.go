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

// MetricsRecorder records reconciliation metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordStageExecution records a stage execution with its duration and error status.
	RecordStageExecution(ctx context.Context, country, stage string, duration time.Duration, err error)

	// RecordCountryRun records completion of one country's pipeline.
	RecordCountryRun(ctx context.Context, country string, success bool, duration time.Duration)

	// RecordCheckpointWrite records a checkpoint mutation.
	RecordCheckpointWrite(ctx context.Context, country string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	stageExecutions  metric.Int64Counter
	stageLatency     metric.Float64Histogram
	stageErrors      metric.Int64Counter
	countryRuns      metric.Int64Counter
	countryLatency   metric.Float64Histogram
	checkpointWrites metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("reconciler")

	stageExecutions, err := meter.Int64Counter("reconciler.stage.executions",
		metric.WithDescription("Number of stage executions"),
	)
	if err != nil {
		return nil, err
	}

	stageLatency, err := meter.Float64Histogram("reconciler.stage.latency_ms",
		metric.WithDescription("Stage execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	stageErrors, err := meter.Int64Counter("reconciler.stage.errors",
		metric.WithDescription("Number of stage execution errors"),
	)
	if err != nil {
		return nil, err
	}

	countryRuns, err := meter.Int64Counter("reconciler.country.runs",
		metric.WithDescription("Number of per-country pipeline runs"),
	)
	if err != nil {
		return nil, err
	}

	countryLatency, err := meter.Float64Histogram("reconciler.country.latency_ms",
		metric.WithDescription("Per-country pipeline latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	checkpointWrites, err := meter.Int64Counter("reconciler.checkpoint.writes",
		metric.WithDescription("Number of checkpoint mutations"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		stageExecutions:  stageExecutions,
		stageLatency:     stageLatency,
		stageErrors:      stageErrors,
		countryRuns:      countryRuns,
		countryLatency:   countryLatency,
		checkpointWrites: checkpointWrites,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
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

// RecordStageExecution records a stage execution.
func (m *otelMetrics) RecordStageExecution(ctx context.Context, country, stage string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("country", country),
		attribute.String("stage", stage),
	}

	m.stageExecutions.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.stageLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.stageErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordCountryRun records one country's pipeline completion.
func (m *otelMetrics) RecordCountryRun(ctx context.Context, country string, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("country", country),
		attribute.Bool("success", success),
	}
	m.countryRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.countryLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordCheckpointWrite records a checkpoint mutation.
func (m *otelMetrics) RecordCheckpointWrite(ctx context.Context, country string) {
	m.checkpointWrites.Add(ctx, 1, metric.WithAttributes(
		attribute.String("country", country),
	))
}
