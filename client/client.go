// Package client wires configuration into a ready-to-use telemetry client.
//
// A Client owns its observer, transport, metrics client and health
// aggregator. It is constructed explicitly; there is no package-level
// instance.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonwraymond/telemetryclient/config"
	"github.com/jonwraymond/telemetryclient/health"
	"github.com/jonwraymond/telemetryclient/metrics"
	"github.com/jonwraymond/telemetryclient/observe"
	"github.com/jonwraymond/telemetryclient/resilience"
	"github.com/jonwraymond/telemetryclient/secret"
	"github.com/jonwraymond/telemetryclient/transport"
)

// Client is the high-level telemetry client.
type Client struct {
	observer   observe.Observer
	ownsObs    bool
	transport  *transport.Client
	metrics    *metrics.Client
	health     *health.Client
	aggregator *health.Aggregator
}

// Option configures a Client.
type Option func(*options)

type options struct {
	observer   observe.Observer
	resolver   *secret.Resolver
	httpClient *http.Client
	userAgent  string
}

// WithObserver uses obs instead of building one from the configuration.
// The caller keeps ownership; Close does not shut it down.
func WithObserver(obs observe.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithSecretResolver resolves auth.token through r.
func WithSecretResolver(r *secret.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithHTTPClient sets the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// New builds a Client from cfg.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{observer: o.observer}
	if c.observer == nil {
		obs, err := observe.NewObserver(ctx, cfg.Observe)
		if err != nil {
			return nil, fmt.Errorf("client: observer: %w", err)
		}
		c.observer = obs
		c.ownsObs = true
	}

	resolver := o.resolver
	if resolver == nil {
		resolver = secret.NewDefaultResolver(secret.WithResolverLogger(c.observer.Logger()))
		defer resolver.Close()
	}
	creds, err := cfg.Credentials(ctx, resolver)
	if err != nil {
		c.shutdownObserver(ctx)
		return nil, err
	}

	projection, err := cfg.Projection()
	if err != nil {
		c.shutdownObserver(ctx)
		return nil, err
	}

	mw, err := observe.MiddlewareFromObserver(c.observer)
	if err != nil {
		c.shutdownObserver(ctx)
		return nil, fmt.Errorf("client: middleware: %w", err)
	}

	topts := []transport.Option{
		transport.WithRetry(resilience.NewRetry(cfg.RetryPolicy())),
		transport.WithTimeout(cfg.Timeout),
		transport.WithCredentials(creds),
		transport.WithMiddleware(mw),
	}
	if o.httpClient != nil {
		topts = append(topts, transport.WithHTTPClient(o.httpClient))
	}
	if o.userAgent != "" {
		topts = append(topts, transport.WithUserAgent(o.userAgent))
	}

	tc, err := transport.New(cfg.BaseURL, topts...)
	if err != nil {
		c.shutdownObserver(ctx)
		return nil, err
	}

	logger := c.observer.Logger().With(observe.Field{Key: "base_url", Value: tc.BaseURL()})

	c.transport = tc
	c.metrics = metrics.NewClient(tc,
		metrics.WithProjection(projection),
		metrics.WithLogger(logger),
		metrics.WithPath(cfg.Metrics.Path),
	)
	c.health = health.NewClient(tc)
	c.aggregator = health.NewAggregator(c.health, c.metrics, health.AggregatorConfig{
		Timeout:  cfg.Health.Timeout,
		Detailed: cfg.Health.Detailed,
		Logger:   logger,
		Metrics:  mw.Metrics(),
	})
	return c, nil
}

// Report fetches the aggregated health report. It never fails.
func (c *Client) Report(ctx context.Context) health.AggregatedReport {
	return c.aggregator.GetHealthWithDetails(ctx)
}

// Metrics fetches the metrics snapshot.
func (c *Client) Metrics(ctx context.Context) (metrics.SystemMetrics, error) {
	return c.metrics.GetMetrics(ctx)
}

// Health fetches /health.
func (c *Client) Health(ctx context.Context) (health.HealthCheckResult, error) {
	return c.health.Health(ctx)
}

// DetailedHealth fetches /health/detailed.
func (c *Client) DetailedHealth(ctx context.Context) (health.HealthCheckResult, error) {
	return c.health.DetailedHealth(ctx)
}

// Readiness fetches /health/ready.
func (c *Client) Readiness(ctx context.Context) (health.ProbeResult, error) {
	return c.health.Readiness(ctx)
}

// Liveness fetches /health/live.
func (c *Client) Liveness(ctx context.Context) (health.ProbeResult, error) {
	return c.health.Liveness(ctx)
}

// Aggregator returns the health aggregator, e.g. for health.ReportHandler.
func (c *Client) Aggregator() *health.Aggregator {
	return c.aggregator
}

// Logger returns the client's logger.
func (c *Client) Logger() observe.Logger {
	return c.observer.Logger()
}

// Close releases connections and, if the Client built its own observer,
// flushes and shuts it down.
func (c *Client) Close(ctx context.Context) error {
	c.transport.Close()
	if !c.ownsObs {
		return nil
	}
	if err := c.observer.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("client: shutdown: %w", err)
	}
	return nil
}

func (c *Client) shutdownObserver(ctx context.Context) {
	if c.ownsObs {
		_ = c.observer.Shutdown(ctx)
	}
}
