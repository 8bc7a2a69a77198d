package auth

import (
	"context"
	"fmt"
	"net/textproto"
	"strings"

	"github.com/go-resty/resty/v2"
)

// DefaultAPIKeyHeader is the header used when none is configured.
const DefaultAPIKeyHeader = "X-API-Key"

// APIKey sends a static key in a request header.
type APIKey struct {
	header string
	key    string
}

// NewAPIKey creates API key credentials.
// Default header: "X-API-Key"
func NewAPIKey(header, key string) (*APIKey, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrMissingCredentials
	}

	header = strings.TrimSpace(header)
	if header == "" {
		header = DefaultAPIKeyHeader
	}
	if !validHeaderName(header) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHeaderName, header)
	}

	return &APIKey{
		header: textproto.CanonicalMIMEHeaderKey(header),
		key:    key,
	}, nil
}

// Name returns "api_key".
func (a *APIKey) Name() string {
	return KindAPIKey
}

// Header returns the canonical header name the key is sent in.
func (a *APIKey) Header() string {
	return a.header
}

// Apply sets the key header on req.
func (a *APIKey) Apply(_ context.Context, req *resty.Request) error {
	req.SetHeader(a.header, a.key)
	return nil
}

// validHeaderName reports whether s is a valid HTTP header field name (RFC 7230 token).
func validHeaderName(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0:
		default:
			return false
		}
	}
	return s != ""
}

var _ Credentials = (*APIKey)(nil)
