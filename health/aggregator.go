package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/telemetryclient/metrics"
	"github.com/jonwraymond/telemetryclient/observe"
	"github.com/jonwraymond/telemetryclient/resilience"
)

// MetricsSource provides the metrics signal. *metrics.Client satisfies it.
type MetricsSource interface {
	GetMetrics(ctx context.Context) (metrics.SystemMetrics, error)
	Path() string
}

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// Timeout bounds each of the four fetches, retries included.
	// Default: 10 seconds
	Timeout time.Duration

	// Detailed fetches /health/detailed instead of /health.
	Detailed bool

	// Now is the clock used for fallback timestamps.
	// Default: time.Now
	Now func() time.Time

	// Logger receives one warning per failed fetch.
	Logger observe.Logger

	// Metrics counts fallback substitutions.
	Metrics observe.Metrics
}

// Aggregator fetches the four health signals concurrently.
//
// Contract:
// - Concurrency: safe for concurrent use; each call builds a fresh report.
// - Errors: GetHealthWithDetails never fails and never panics.
type Aggregator struct {
	config  AggregatorConfig
	health  *Client
	metrics MetricsSource
	timeout *resilience.Timeout
}

// NewAggregator creates a new health aggregator.
func NewAggregator(hc *Client, mc MetricsSource, config ...AggregatorConfig) *Aggregator {
	var cfg AggregatorConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.NopMetrics()
	}

	return &Aggregator{
		config:  cfg,
		health:  hc,
		metrics: mc,
		timeout: resilience.NewTimeout(resilience.TimeoutConfig{Timeout: cfg.Timeout}),
	}
}

// GetHealthWithDetails fetches health, readiness, liveness and metrics
// concurrently and waits for all four to settle.
func (a *Aggregator) GetHealthWithDetails(ctx context.Context) AggregatedReport {
	healthPath, healthFetch := PathHealth, a.health.Health
	if a.config.Detailed {
		healthPath, healthFetch = PathDetailedHealth, a.health.DetailedHealth
	}

	var (
		report AggregatedReport
		errs   [4]error
		g      errgroup.Group
	)

	// Every branch returns nil so a failure never cancels its siblings.
	g.Go(func() error {
		report.Health, errs[0] = resilience.Within(ctx, a.timeout, healthFetch)
		return nil
	})
	g.Go(func() error {
		report.Readiness, errs[1] = resilience.Within(ctx, a.timeout, a.health.Readiness)
		return nil
	})
	g.Go(func() error {
		report.Liveness, errs[2] = resilience.Within(ctx, a.timeout, a.health.Liveness)
		return nil
	})
	g.Go(func() error {
		report.Metrics, errs[3] = resilience.Within(ctx, a.timeout, a.metrics.GetMetrics)
		return nil
	})
	_ = g.Wait()

	now := a.config.Now()
	report.Errors = make([]EndpointError, 0, len(errs))

	endpoints := [4]string{healthPath, PathReadiness, PathLiveness, a.metrics.Path()}
	for i, err := range errs {
		if err == nil {
			continue
		}

		switch i {
		case 0:
			report.Health = FallbackHealth(now)
		case 1:
			report.Readiness = FallbackReadiness(now)
		case 2:
			report.Liveness = FallbackLiveness(now)
		case 3:
			report.Metrics = FallbackMetrics()
		}

		report.Errors = append(report.Errors, EndpointError{Endpoint: endpoints[i], Error: err.Error()})
		a.config.Metrics.RecordFallback(ctx, endpoints[i])
		a.config.Logger.Warn(ctx, "health signal unavailable, using fallback",
			observe.Field{Key: "endpoint", Value: endpoints[i]},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}

	return report
}

// OverallStatus summarizes a report.
// Returns Unhealthy if health is unhealthy or the service is not ready or not alive.
// Returns Degraded if health or any check is degraded, or any fetch failed.
// Returns Healthy otherwise.
func OverallStatus(report AggregatedReport) Status {
	if report.Health.Status == StatusUnhealthy ||
		report.Readiness.Status != "ready" ||
		report.Liveness.Status != "alive" {
		return StatusUnhealthy
	}

	if report.Health.Status == StatusDegraded || len(report.Errors) > 0 {
		return StatusDegraded
	}
	for _, check := range report.Health.Checks {
		if check.Status != StatusHealthy {
			return StatusDegraded
		}
	}
	return StatusHealthy
}
