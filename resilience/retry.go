package resilience

import (
	"context"
	"math"
	"time"
)

// RetryConfig configures the retry behavior.
//
// The zero value selects the defaults below. Use NoRetries for a config that
// makes exactly one attempt.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt.
	// Default: 3
	MaxRetries int

	// RetryDelay is the delay before the first retry.
	// Default: 1s
	RetryDelay time.Duration

	// BackoffMultiplier scales the delay for each subsequent retry.
	// Values below 1 are clamped to 1.
	// Default: 2.0
	BackoffMultiplier float64

	// MaxDelay caps the delay between retries. Zero means no cap.
	MaxDelay time.Duration

	// RetryIf determines if an error should trigger a retry.
	// Default: IsRetryable
	RetryIf func(err error) bool

	// OnRetry is called before each backoff sleep. Attempt is 1-based and
	// names the attempt that just failed.
	OnRetry func(attempt int, err error, delay time.Duration)

	noRetries bool
}

// NoRetries returns a config that performs a single attempt.
func NoRetries() RetryConfig {
	return RetryConfig{noRetries: true}
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		RetryDelay:        time.Second,
		BackoffMultiplier: 2.0,
		RetryIf:           IsRetryable,
	}
}

// Retry implements bounded retry with geometric backoff.
//
// A Retry holds its config immutably and is safe for concurrent use.
type Retry struct {
	config RetryConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	if config.noRetries {
		config.MaxRetries = 0
	} else if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}
	if config.BackoffMultiplier < 1 {
		if config.BackoffMultiplier <= 0 {
			config.BackoffMultiplier = 2.0
		} else {
			config.BackoffMultiplier = 1
		}
	}
	if config.MaxDelay < 0 {
		config.MaxDelay = 0
	}
	if config.RetryIf == nil {
		config.RetryIf = IsRetryable
	}

	return &Retry{config: config, sleep: sleepContext}
}

// Execute runs op, retrying retryable failures until MaxRetries is spent.
//
// On exhaustion or a non-retryable failure the most recent error is returned
// unchanged.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !r.config.RetryIf(err) || attempt == r.config.MaxRetries {
			break
		}

		delay := r.Delay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt+1, err, delay)
		}

		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}

// Delay returns the backoff before retry k, where k=0 is the first retry.
func (r *Retry) Delay(k int) time.Duration {
	if k < 0 {
		k = 0
	}
	scaled := float64(r.config.RetryDelay) * math.Pow(r.config.BackoffMultiplier, float64(k))

	delay := time.Duration(math.MaxInt64)
	if scaled < float64(math.MaxInt64) {
		delay = time.Duration(scaled)
	}
	if r.config.MaxDelay > 0 && delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}
	return delay
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}

// Do runs op through r and returns its value.
func Do[T any](ctx context.Context, r *Retry, op func(context.Context) (T, error)) (T, error) {
	var out T
	err := r.Execute(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
