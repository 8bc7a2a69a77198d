// Package config loads client configuration.
//
// Configuration is built in three layers, later layers winning: built-in
// defaults, an optional YAML file, and TELEMETRY_* environment variables.
// Command-line flags are applied on top by the caller. The file is expanded
// with secret.ExpandEnvStrict before parsing, so ${VAR} references to unset
// variables fail loudly instead of becoming empty strings.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/telemetryclient/auth"
	"github.com/jonwraymond/telemetryclient/metrics"
	"github.com/jonwraymond/telemetryclient/observe"
	"github.com/jonwraymond/telemetryclient/resilience"
	"github.com/jonwraymond/telemetryclient/secret"
)

// Environment variables read by ApplyEnv.
const (
	EnvBaseURL           = "TELEMETRY_BASE_URL"
	EnvToken             = "TELEMETRY_TOKEN"
	EnvMaxRetries        = "TELEMETRY_MAX_RETRIES"
	EnvRetryDelay        = "TELEMETRY_RETRY_DELAY"
	EnvBackoffMultiplier = "TELEMETRY_BACKOFF_MULTIPLIER"
	EnvTimeout           = "TELEMETRY_TIMEOUT"
	EnvLogLevel          = "TELEMETRY_LOG_LEVEL"
	EnvLogFormat         = "TELEMETRY_LOG_FORMAT"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the complete client configuration.
type Config struct {
	// BaseURL is the root of the telemetry service, e.g. https://svc.example.com.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single request attempt.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	Retry   RetryConfig    `yaml:"retry"`
	Auth    AuthConfig     `yaml:"auth"`
	Metrics MetricsConfig  `yaml:"metrics"`
	Health  HealthConfig   `yaml:"health"`
	Observe observe.Config `yaml:"observe"`
}

// RetryConfig configures retries of idempotent requests.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt. An
	// explicit 0 disables retries.
	// Default: 3
	MaxRetries *int `yaml:"max_retries"`

	// RetryDelay is the delay before the first retry.
	// Default: 1s
	RetryDelay time.Duration `yaml:"retry_delay"`

	// BackoffMultiplier scales each subsequent delay.
	// Default: 2
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`

	// MaxDelay caps the delay between retries. Zero means no cap.
	MaxDelay time.Duration `yaml:"max_delay"`
}

// AuthConfig configures request credentials.
type AuthConfig struct {
	// Kind is one of none, bearer, api_key. Empty selects bearer when a
	// token is set.
	Kind string `yaml:"kind"`

	// Token is the bearer token or API key. It may be a secret reference
	// such as secretref:env:TELEMETRY_TOKEN or secretref:file:/path.
	Token string `yaml:"token"`

	// Header is the API key header.
	// Default: X-API-Key
	Header string `yaml:"header"`
}

// MetricsConfig configures the metrics client.
type MetricsConfig struct {
	// Path is the metrics endpoint.
	// Default: /metrics
	Path string `yaml:"path"`

	// Projection overrides the exposition metric name per field, e.g.
	// uptime: app_uptime_seconds.
	Projection map[string]string `yaml:"projection"`
}

// HealthConfig configures the health aggregator.
type HealthConfig struct {
	// Detailed fetches /health/detailed instead of /health.
	Detailed bool `yaml:"detailed"`

	// Timeout bounds each aggregated fetch, retries included.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	maxRetries := 3
	return Config{
		BaseURL: "http://localhost:8787",
		Timeout: 30 * time.Second,
		Retry: RetryConfig{
			MaxRetries:        &maxRetries,
			RetryDelay:        time.Second,
			BackoffMultiplier: 2,
		},
		Auth: AuthConfig{
			Header: auth.DefaultAPIKeyHeader,
		},
		Metrics: MetricsConfig{
			Path: metrics.DefaultPath,
		},
		Health: HealthConfig{
			Timeout: 10 * time.Second,
		},
		Observe: observe.Config{
			ServiceName: "telemetryclient",
			Tracing:     observe.TracingConfig{Exporter: "none", SamplePct: 1},
			Metrics:     observe.MetricsConfig{Exporter: "none"},
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
		},
	}
}

// Load reads defaults, the YAML file at path (if path is non-empty) and the
// environment, then validates the result.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile merges the YAML file at path into c. Unknown keys are rejected.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	return c.parse(string(data))
}

func (c *Config) parse(text string) error {
	expanded, err := secret.ExpandEnvStrict(text)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parse: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from TELEMETRY_* environment variables.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvBaseURL); ok {
		c.BaseURL = v
	}
	if v, ok := os.LookupEnv(EnvToken); ok {
		c.Auth.Token = v
	}
	if v, ok := os.LookupEnv(EnvMaxRetries); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvMaxRetries, err)
		}
		c.Retry.MaxRetries = &n
	}
	if v, ok := os.LookupEnv(EnvRetryDelay); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvRetryDelay, err)
		}
		c.Retry.RetryDelay = d
	}
	if v, ok := os.LookupEnv(EnvBackoffMultiplier); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvBackoffMultiplier, err)
		}
		c.Retry.BackoffMultiplier = f
	}
	if v, ok := os.LookupEnv(EnvTimeout); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.Observe.Logging.Level = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok {
		c.Observe.Logging.Format = strings.ToLower(strings.TrimSpace(v))
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: base_url %q must be an absolute http(s) URL", ErrInvalid, c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalid, c.Timeout)
	}
	if c.Retry.MaxRetries != nil && *c.Retry.MaxRetries < 0 {
		return fmt.Errorf("%w: retry.max_retries must be >= 0, got %d", ErrInvalid, *c.Retry.MaxRetries)
	}
	if c.Retry.RetryDelay < 0 || c.Retry.MaxDelay < 0 {
		return fmt.Errorf("%w: retry delays must be >= 0", ErrInvalid)
	}
	if m := c.Retry.BackoffMultiplier; m != 0 && !(m >= 1) {
		return fmt.Errorf("%w: retry.backoff_multiplier must be >= 1 (0 selects the default), got %g", ErrInvalid, m)
	}

	kinds := []string{"", auth.KindNone, auth.KindBearer, auth.KindAPIKey, "apikey"}
	if !slices.Contains(kinds, strings.ToLower(c.Auth.Kind)) {
		return fmt.Errorf("%w: auth.kind %q", ErrInvalid, c.Auth.Kind)
	}
	if _, err := metrics.ParseProjection(c.Metrics.Projection); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Health.Timeout < 0 {
		return fmt.Errorf("%w: health.timeout must be >= 0", ErrInvalid)
	}
	if err := c.Observe.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// RetryPolicy returns the resilience configuration.
func (c *Config) RetryPolicy() resilience.RetryConfig {
	if c.Retry.MaxRetries != nil && *c.Retry.MaxRetries == 0 {
		return resilience.NoRetries()
	}

	cfg := resilience.DefaultRetryConfig()
	if c.Retry.MaxRetries != nil {
		cfg.MaxRetries = *c.Retry.MaxRetries
	}
	if c.Retry.RetryDelay > 0 {
		cfg.RetryDelay = c.Retry.RetryDelay
	}
	if c.Retry.BackoffMultiplier > 0 {
		cfg.BackoffMultiplier = c.Retry.BackoffMultiplier
	}
	cfg.MaxDelay = c.Retry.MaxDelay
	return cfg
}

// Projection returns the metrics projection.
func (c *Config) Projection() (metrics.Projection, error) {
	return metrics.ParseProjection(c.Metrics.Projection)
}

// Credentials resolves the auth token through r and builds the request
// credentials. A nil resolver uses secret.NewDefaultResolver.
func (c *Config) Credentials(ctx context.Context, r *secret.Resolver) (auth.Credentials, error) {
	token := c.Auth.Token
	if token != "" {
		if r == nil {
			r = secret.NewDefaultResolver()
			defer r.Close()
		}
		resolved, err := r.Resolve(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("config: auth.token: %w", err)
		}
		token = resolved
	}
	return auth.FromConfig(c.Auth.Kind, token, c.Auth.Header)
}
