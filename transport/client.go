package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jonwraymond/telemetryclient/auth"
	"github.com/jonwraymond/telemetryclient/observe"
	"github.com/jonwraymond/telemetryclient/resilience"
)

// Accept headers for the two representations the service offers.
const (
	AcceptJSON = "application/json"
	AcceptText = "text/plain; version=0.0.4"
)

// DefaultTimeout bounds a single attempt when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "telemetryclient-go/1"

// Response is a successful (2xx) response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client performs requests against one base URL.
type Client struct {
	baseURL string
	http    *resty.Client
	retry   *resilience.Retry
	creds   auth.Credentials
	mw      *observe.Middleware
}

// Option configures a Client.
type Option func(*options)

type options struct {
	retry      *resilience.Retry
	timeout    time.Duration
	creds      auth.Credentials
	observer   observe.Observer
	middleware *observe.Middleware
	userAgent  string
	httpClient *http.Client
}

// WithRetry sets the retry policy for GET requests.
// Default: resilience.DefaultRetryConfig()
func WithRetry(r *resilience.Retry) Option {
	return func(o *options) { o.retry = r }
}

// WithTimeout sets the per-attempt timeout.
// Default: 30s
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithCredentials sets the credentials applied to every request.
func WithCredentials(c auth.Credentials) Option {
	return func(o *options) { o.creds = c }
}

// WithObserver traces, measures and logs requests through obs.
func WithObserver(obs observe.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithMiddleware uses an existing middleware. It takes precedence over
// WithObserver.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(o *options) { o.middleware = mw }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithHTTPClient sets the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	o := options{timeout: DefaultTimeout, userAgent: DefaultUserAgent}
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout <= 0 {
		o.timeout = DefaultTimeout
	}
	if o.retry == nil {
		o.retry = resilience.NewRetry(resilience.DefaultRetryConfig())
	}
	if o.creds == nil {
		o.creds = auth.None()
	}

	mw := o.middleware
	if mw == nil && o.observer != nil {
		mw, err = observe.MiddlewareFromObserver(o.observer)
		if err != nil {
			return nil, fmt.Errorf("transport: observer: %w", err)
		}
	}
	if mw == nil {
		mw = observe.NewMiddleware(nil, nil, nil)
	}

	var rc *resty.Client
	if o.httpClient != nil {
		rc = resty.NewWithClient(o.httpClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(base).
		SetTimeout(o.timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", o.userAgent).
		SetLogger(restyLogger{logger: mw.Logger()})

	return &Client{
		baseURL: base,
		http:    rc,
		retry:   o.retry,
		creds:   o.creds,
		mw:      mw,
	}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET for path with the given Accept header, retrying transient
// failures. The final error is an *Error.
func (c *Client) Get(ctx context.Context, path, accept string) (*Response, error) {
	meta := observe.RequestMeta{Method: http.MethodGet, Endpoint: path, Accept: accept}

	var resp *Response
	_, err := c.mw.Wrap(func(ctx context.Context, meta observe.RequestMeta) (observe.Outcome, error) {
		var out observe.Outcome
		r, err := resilience.Do(ctx, c.retryFor(ctx, meta), func(ctx context.Context) (*Response, error) {
			out.Attempts++
			r, err := c.do(ctx, meta)
			out.StatusCode = statusOf(r, err)
			return r, err
		})
		resp = r
		return out, err
	})(ctx, meta)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetJSON issues a GET for path and decodes the JSON body into v.
// A body that is not valid JSON yields an *Error wrapping ErrDecode.
func (c *Client) GetJSON(ctx context.Context, path string, v any) error {
	resp, err := c.Get(ctx, path, AcceptJSON)
	if err != nil {
		return err
	}
	if err := c.http.JSONUnmarshal(resp.Body, v); err != nil {
		return &Error{
			Method:     http.MethodGet,
			Endpoint:   path,
			HTTPStatus: resp.StatusCode,
			Body:       resp.Body,
			Err:        fmt.Errorf("%w: %v", ErrDecode, err),
		}
	}
	return nil
}

// GetText issues a GET for path requesting the text exposition format.
func (c *Client) GetText(ctx context.Context, path string) (string, error) {
	resp, err := c.Get(ctx, path, AcceptText)
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.GetClient().CloseIdleConnections()
}

// retryFor derives a per-request retry that logs each scheduled retry.
func (c *Client) retryFor(ctx context.Context, meta observe.RequestMeta) *resilience.Retry {
	cfg := c.retry.Config()
	next := cfg.OnRetry
	logger := c.mw.Logger()
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Debug(ctx, "retry scheduled",
			observe.Field{Key: "endpoint", Value: meta.Endpoint},
			observe.Field{Key: "attempt", Value: attempt},
			observe.Field{Key: "delay_ms", Value: delay.Milliseconds()},
			observe.Field{Key: "error", Value: err.Error()},
		)
		if next != nil {
			next(attempt, err, delay)
		}
	}
	return resilience.NewRetry(cfg)
}

// do performs a single attempt.
func (c *Client) do(ctx context.Context, meta observe.RequestMeta) (*Response, error) {
	req := c.http.R().SetContext(ctx)
	if meta.Accept != "" {
		req.SetHeader("Accept", meta.Accept)
	}
	if err := c.creds.Apply(ctx, req); err != nil {
		return nil, &Error{Method: meta.Method, Endpoint: meta.Endpoint, Err: err}
	}

	r, err := req.Execute(meta.Method, meta.Endpoint)
	if err != nil {
		return nil, &Error{Method: meta.Method, Endpoint: meta.Endpoint, Err: err}
	}

	if !r.IsSuccess() {
		return nil, &Error{
			Method:     meta.Method,
			Endpoint:   meta.Endpoint,
			HTTPStatus: r.StatusCode(),
			Status:     r.Status(),
			Body:       r.Body(),
		}
	}

	return &Response{
		StatusCode: r.StatusCode(),
		Header:     r.Header(),
		Body:       r.Body(),
	}, nil
}

func statusOf(r *Response, err error) int {
	if r != nil {
		return r.StatusCode
	}
	var te *Error
	if errors.As(err, &te) {
		return te.HTTPStatus
	}
	return 0
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidBaseURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidBaseURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidBaseURL)
	}
	return strings.TrimRight(u.String(), "/"), nil
}
