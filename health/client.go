package health

import (
	"context"
)

// Endpoint paths.
const (
	PathHealth         = "/health"
	PathDetailedHealth = "/health/detailed"
	PathReadiness      = "/health/ready"
	PathLiveness       = "/health/live"
)

// Getter is the transport surface the health client needs.
// *transport.Client satisfies it.
type Getter interface {
	GetJSON(ctx context.Context, path string, v any) error
}

// Client fetches the health endpoints.
type Client struct {
	getter Getter
}

// NewClient creates a health client over g.
func NewClient(g Getter) *Client {
	return &Client{getter: g}
}

// Health fetches /health.
func (c *Client) Health(ctx context.Context) (HealthCheckResult, error) {
	return c.health(ctx, PathHealth)
}

// DetailedHealth fetches /health/detailed.
func (c *Client) DetailedHealth(ctx context.Context) (HealthCheckResult, error) {
	return c.health(ctx, PathDetailedHealth)
}

// Readiness fetches /health/ready.
func (c *Client) Readiness(ctx context.Context) (ProbeResult, error) {
	return c.probe(ctx, PathReadiness)
}

// Liveness fetches /health/live.
func (c *Client) Liveness(ctx context.Context) (ProbeResult, error) {
	return c.probe(ctx, PathLiveness)
}

func (c *Client) health(ctx context.Context, path string) (HealthCheckResult, error) {
	var out HealthCheckResult
	if err := c.getter.GetJSON(ctx, path, &out); err != nil {
		return HealthCheckResult{}, err
	}
	if out.Checks == nil {
		out.Checks = map[string]CheckResult{}
	}
	return out, nil
}

func (c *Client) probe(ctx context.Context, path string) (ProbeResult, error) {
	var out ProbeResult
	if err := c.getter.GetJSON(ctx, path, &out); err != nil {
		return ProbeResult{}, err
	}
	return out, nil
}
