package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

// Kind names a credentials implementation in configuration.
const (
	KindNone   = "none"
	KindBearer = "bearer"
	KindAPIKey = "api_key"
)

// Credentials attach authentication to an outgoing request.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: a non-nil error aborts the request before any network I/O.
// - Apply must not log or otherwise expose the secret value.
type Credentials interface {
	// Name returns the credentials kind (e.g. "bearer", "api_key").
	Name() string

	// Apply attaches the credentials to req.
	Apply(ctx context.Context, req *resty.Request) error
}

type noCredentials struct{}

// None returns Credentials that leave requests untouched.
func None() Credentials {
	return noCredentials{}
}

func (noCredentials) Name() string { return KindNone }

func (noCredentials) Apply(context.Context, *resty.Request) error { return nil }

// FromConfig builds Credentials from a kind, a secret value and an optional
// header name. An empty kind selects bearer when value is set, none otherwise.
func FromConfig(kind, value, header string) (Credentials, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		if value == "" {
			return None(), nil
		}
		kind = KindBearer
	}

	switch kind {
	case KindNone:
		return None(), nil
	case KindBearer:
		b, err := NewBearerToken(value)
		if err != nil {
			return nil, err
		}
		return b, nil
	case KindAPIKey, "apikey":
		k, err := NewAPIKey(header, value)
		if err != nil {
			return nil, err
		}
		return k, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

var _ Credentials = noCredentials{}
