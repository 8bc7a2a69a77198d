// Package observe provides observability primitives for the telemetry client.
//
// It is a pure instrumentation library: it owns no transport of its own.
// The transport wraps each logical request with a Middleware so that every
// request gets a span, request/error/retry counters and one log line; the
// health aggregator records failed branches through the same Metrics.
package observe
