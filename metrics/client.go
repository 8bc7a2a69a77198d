package metrics

import (
	"context"
	"maps"

	"github.com/jonwraymond/telemetryclient/exposition"
	"github.com/jonwraymond/telemetryclient/observe"
)

// DefaultPath is the metrics endpoint.
const DefaultPath = "/metrics"

// Getter is the transport surface the metrics client needs.
// *transport.Client satisfies it.
type Getter interface {
	GetJSON(ctx context.Context, path string, v any) error
	GetText(ctx context.Context, path string) (string, error)
}

// Client fetches SystemMetrics.
//
// Contract:
// - Concurrency: safe for concurrent use; holds only immutable state.
// - Errors: when both representations fail, the JSON error is returned.
type Client struct {
	getter     Getter
	projection Projection
	logger     observe.Logger
	path       string
}

// Option configures a Client.
type Option func(*Client)

// WithProjection sets the projection used for the text fallback.
func WithProjection(p Projection) Option {
	return func(c *Client) {
		if len(p) > 0 {
			c.projection = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPath overrides the metrics endpoint path.
func WithPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.path = path
		}
	}
}

// NewClient creates a metrics client over g.
func NewClient(g Getter, opts ...Option) *Client {
	c := &Client{
		getter:     g,
		projection: DefaultProjection(),
		logger:     observe.NopLogger(),
		path:       DefaultPath,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.projection = maps.Clone(c.projection)
	return c
}

// Path returns the metrics endpoint path.
func (c *Client) Path() string {
	return c.path
}

// GetMetrics fetches the metrics snapshot.
func (c *Client) GetMetrics(ctx context.Context) (SystemMetrics, error) {
	var m SystemMetrics
	jsonErr := c.getter.GetJSON(ctx, c.path, &m)
	if jsonErr == nil {
		return m, nil
	}

	c.logger.Info(ctx, "metrics JSON fetch failed, trying text format",
		observe.Field{Key: "endpoint", Value: c.path},
		observe.Field{Key: "error", Value: jsonErr.Error()},
	)

	text, err := c.getter.GetText(ctx, c.path)
	if err != nil {
		c.logger.Debug(ctx, "metrics text fetch failed",
			observe.Field{Key: "endpoint", Value: c.path},
			observe.Field{Key: "error", Value: err.Error()},
		)
		return SystemMetrics{}, jsonErr
	}

	return c.projection.Apply(exposition.Parse(text)), nil
}
