package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records client-side request and report metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordRequest records one logical request with its outcome.
	RecordRequest(ctx context.Context, meta RequestMeta, duration time.Duration, out Outcome, err error)

	// RecordFallback records that a fallback value replaced a failed fetch.
	RecordFallback(ctx context.Context, endpoint string)
}

type metricsImpl struct {
	requests  metric.Int64Counter
	errors    metric.Int64Counter
	retries   metric.Int64Counter
	fallbacks metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewMetrics creates Metrics backed by the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	requests, err := meter.Int64Counter(
		"telemetry.client.requests",
		metric.WithDescription("Logical requests issued to the remote service"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	errorsCounter, err := meter.Int64Counter(
		"telemetry.client.errors",
		metric.WithDescription("Logical requests that failed after all attempts"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	retries, err := meter.Int64Counter(
		"telemetry.client.retries",
		metric.WithDescription("Attempts beyond the first"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	fallbacks, err := meter.Int64Counter(
		"telemetry.report.fallbacks",
		metric.WithDescription("Report fields replaced by a fallback value"),
		metric.WithUnit("{fallback}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"telemetry.client.duration_ms",
		metric.WithDescription("Logical request duration including backoff, in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		requests:  requests,
		errors:    errorsCounter,
		retries:   retries,
		fallbacks: fallbacks,
		duration:  duration,
	}, nil
}

func (m *metricsImpl) RecordRequest(ctx context.Context, meta RequestMeta, duration time.Duration, out Outcome, err error) {
	opt := metric.WithAttributes(
		attribute.String("http.request.method", meta.Method),
		attribute.String("telemetry.endpoint", meta.Endpoint),
	)

	m.requests.Add(ctx, 1, opt)
	if err != nil {
		m.errors.Add(ctx, 1, opt)
	}
	if out.Attempts > 1 {
		m.retries.Add(ctx, int64(out.Attempts-1), opt)
	}
	m.duration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordFallback(ctx context.Context, endpoint string) {
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("telemetry.endpoint", endpoint)))
}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) RecordRequest(context.Context, RequestMeta, time.Duration, Outcome, error) {}
func (noopMetrics) RecordFallback(context.Context, string)                                    {}
