package health

import "github.com/jonwraymond/telemetryclient/metrics"

// CheckResult is the state of one subsystem check.
type CheckResult struct {
	Status    Status `json:"status"`
	LastCheck int64  `json:"lastCheck"`
	Error     string `json:"error,omitempty"`
}

// HealthCheckResult is the body of /health and /health/detailed.
// Timestamp is in Unix milliseconds.
type HealthCheckResult struct {
	Status      Status                 `json:"status"`
	Timestamp   int64                  `json:"timestamp"`
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Checks      map[string]CheckResult `json:"checks"`
}

// ProbeResult is the body of /health/ready and /health/live.
type ProbeResult struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// EndpointError records one failed fetch.
type EndpointError struct {
	Endpoint string `json:"endpoint"`
	Error    string `json:"error"`
}

// AggregatedReport combines the four signals.
//
// Every field is always populated, with a fallback value when its fetch
// failed. Errors holds one entry per failed fetch in the order health,
// readiness, liveness, metrics, and is never nil.
type AggregatedReport struct {
	Health    HealthCheckResult     `json:"health"`
	Readiness ProbeResult           `json:"readiness"`
	Liveness  ProbeResult           `json:"liveness"`
	Metrics   metrics.SystemMetrics `json:"metrics"`
	Errors    []EndpointError       `json:"errors"`
}
