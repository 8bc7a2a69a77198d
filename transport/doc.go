// Package transport issues authenticated GET requests against the telemetry
// service.
//
// A Client wraps a resty client with resty's own retry disabled. Idempotent
// requests are retried by a resilience.Retry, traced and measured by an
// observe.Middleware, and every failure surfaces as an *Error carrying the
// endpoint and, when a response was received, its HTTP status.
//
// A Client holds only immutable state and is safe for concurrent use.
package transport
