// Package resilience provides the failure-handling primitives used by the
// telemetry client.
//
// # Retry
//
// Retry re-runs an operation that failed with a transient error, sleeping
// between attempts with a geometric backoff:
//
//	delay(k) = RetryDelay * BackoffMultiplier^k
//
// where k=0 is the first retry. Given MaxRetries=3, RetryDelay=1s and
// BackoffMultiplier=2 the delays are 1s, 2s and 4s. When the retries are
// spent, or the error is not retryable, the most recent error is returned
// unchanged.
//
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxRetries:        3,
//	    RetryDelay:        time.Second,
//	    BackoffMultiplier: 2,
//	})
//
//	body, err := resilience.Do(ctx, retry, func(ctx context.Context) ([]byte, error) {
//	    return fetch(ctx)
//	})
//
// IsRetryable is the default classifier: network failures and HTTP 408, 429
// and 5xx statuses are transient; every other status is final.
//
// # Timeout
//
// Timeout bounds a single operation and turns a panic inside it into an
// error, so a caller running several operations side by side can isolate
// each of them.
package resilience
