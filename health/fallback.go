package health

import (
	"time"

	"github.com/jonwraymond/telemetryclient/metrics"
)

// Fallback values substituted for failed fetches.
const (
	FallbackUnknown     = "unknown"
	FallbackNotReady    = "not ready"
	FallbackNotAlive    = "not alive"
	FallbackCheckFailed = "Health check failed"
)

// Subsystems lists the checks a fallback health result reports.
var Subsystems = []string{"database", "kv", "r2", "durableObjects", "secrets"}

// FallbackHealth returns the health result used when /health fails.
func FallbackHealth(now time.Time) HealthCheckResult {
	ts := now.UnixMilli()
	checks := make(map[string]CheckResult, len(Subsystems))
	for _, name := range Subsystems {
		checks[name] = CheckResult{
			Status:    StatusUnhealthy,
			LastCheck: ts,
			Error:     FallbackCheckFailed,
		}
	}
	return HealthCheckResult{
		Status:      StatusUnhealthy,
		Timestamp:   ts,
		Version:     FallbackUnknown,
		Environment: FallbackUnknown,
		Checks:      checks,
	}
}

// FallbackReadiness returns the readiness result used when /health/ready fails.
func FallbackReadiness(now time.Time) ProbeResult {
	return ProbeResult{Status: FallbackNotReady, Timestamp: now.UnixMilli()}
}

// FallbackLiveness returns the liveness result used when /health/live fails.
func FallbackLiveness(now time.Time) ProbeResult {
	return ProbeResult{Status: FallbackNotAlive, Timestamp: now.UnixMilli()}
}

// FallbackMetrics returns the metrics used when /metrics fails: all zero
// except ErrorRate, which is 1.
func FallbackMetrics() metrics.SystemMetrics {
	return metrics.SystemMetrics{ErrorRate: 1}
}
