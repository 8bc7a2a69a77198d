// Package health fetches the remote service's health signals and combines
// them into one report.
//
// Client fetches the individual endpoints (/health, /health/detailed,
// /health/ready, /health/live). Aggregator fetches health, readiness,
// liveness and metrics concurrently and always returns a complete
// AggregatedReport: a failed fetch is replaced by a fixed fallback value and
// recorded in the report's Errors list.
//
// # Basic Usage
//
//	agg := health.NewAggregator(health.NewClient(tc), metrics.NewClient(tc))
//	report := agg.GetHealthWithDetails(ctx)
//	for _, e := range report.Errors {
//	    log.Printf("%s: %s", e.Endpoint, e.Error)
//	}
//	overall := health.OverallStatus(report)
//
// # HTTP Endpoints
//
// ReportHandler serves the aggregated report as JSON, answering 503 when the
// overall status is unhealthy:
//
//	r.Get("/report", health.ReportHandler(agg))
package health
