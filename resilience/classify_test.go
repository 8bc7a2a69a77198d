package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"500", &statusError{code: http.StatusInternalServerError}, true},
		{"503", &statusError{code: http.StatusServiceUnavailable}, true},
		{"599", &statusError{code: 599}, true},
		{"408", &statusError{code: http.StatusRequestTimeout}, true},
		{"429", &statusError{code: http.StatusTooManyRequests}, true},
		{"400", &statusError{code: http.StatusBadRequest}, false},
		{"401", &statusError{code: http.StatusUnauthorized}, false},
		{"404", &statusError{code: http.StatusNotFound}, false},
		{"wrapped 502", fmt.Errorf("fetch: %w", &statusError{code: http.StatusBadGateway}), true},
		{"connection refused", &url.Error{Op: "Get", URL: "http://x", Err: syscall.ECONNREFUSED}, true},
		{"connection aborted", syscall.ECONNABORTED, true},
		{"connection reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"dns", &net.DNSError{Err: "no such host", Name: "nowhere.invalid", IsNotFound: true}, true},
		{"op error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("unreachable")}, true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"timeout", ErrTimeout, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsRetryable_StatusZeroFallsBackToCause(t *testing.T) {
	err := &wrappedStatus{code: 0, cause: syscall.ECONNREFUSED}
	if !IsRetryable(err) {
		t.Error("status 0 wrapping a network error should be retryable")
	}

	err = &wrappedStatus{code: 0, cause: errors.New("decode failed")}
	if IsRetryable(err) {
		t.Error("status 0 wrapping a non-network error should not be retryable")
	}
}

type wrappedStatus struct {
	code  int
	cause error
}

func (e *wrappedStatus) Error() string   { return e.cause.Error() }
func (e *wrappedStatus) StatusCode() int { return e.code }
func (e *wrappedStatus) Unwrap() error   { return e.cause }
