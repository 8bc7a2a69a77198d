package observe

import (
	"context"
	"time"
)

// RequestFunc performs one logical request, including any retries.
type RequestFunc func(ctx context.Context, meta RequestMeta) (Outcome, error)

// Middleware wraps requests with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe RequestFunc.
//   - Context: the span is propagated to the wrapped function.
//   - Errors: errors from the wrapped function are recorded and propagated unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware. Nil components are replaced by
// no-op implementations.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Metrics returns the middleware's metrics recorder.
func (m *Middleware) Metrics() Metrics {
	return m.metrics
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// Wrap wraps fn with a span, metrics and a log line.
func (m *Middleware) Wrap(fn RequestFunc) RequestFunc {
	return func(ctx context.Context, meta RequestMeta) (Outcome, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		out, err := fn(ctx, meta)

		duration := time.Since(start)
		m.tracer.EndSpan(span, out, err)
		m.metrics.RecordRequest(ctx, meta, duration, out, err)

		fields := []Field{
			{Key: "method", Value: meta.Method},
			{Key: "endpoint", Value: meta.Endpoint},
			{Key: "attempts", Value: out.Attempts},
			{Key: "duration_ms", Value: duration.Milliseconds()},
		}
		if out.StatusCode != 0 {
			fields = append(fields, Field{Key: "status", Value: out.StatusCode})
		}

		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			m.logger.Warn(ctx, "request failed", fields...)
		} else {
			m.logger.Debug(ctx, "request completed", fields...)
		}

		return out, err
	}
}
