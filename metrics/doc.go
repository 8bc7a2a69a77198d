// Package metrics fetches the remote service's system metrics.
//
// The JSON representation of /metrics is tried first. If that fails for any
// reason the text exposition format is fetched, parsed and projected onto
// SystemMetrics through a configurable Projection; if that also fails the
// error from the JSON attempt is returned.
package metrics
