package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
)

// BearerToken sends "Authorization: Bearer <token>".
//
// When the token is a JWT its exp claim is read once, without signature
// verification, and checked before each request. Opaque tokens are sent
// unchanged.
type BearerToken struct {
	token     string
	expiresAt time.Time
	now       func() time.Time
}

// BearerOption configures a BearerToken.
type BearerOption func(*BearerToken)

// WithClock sets the time source used for the expiry check.
func WithClock(now func() time.Time) BearerOption {
	return func(b *BearerToken) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBearerToken creates bearer credentials for token.
func NewBearerToken(token string, opts ...BearerOption) (*BearerToken, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, ErrMissingCredentials
	}

	b := &BearerToken{
		token:     token,
		expiresAt: jwtExpiry(token),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Name returns "bearer".
func (b *BearerToken) Name() string {
	return KindBearer
}

// ExpiresAt returns the JWT expiry, or the zero time for opaque tokens and
// JWTs without an exp claim.
func (b *BearerToken) ExpiresAt() time.Time {
	return b.expiresAt
}

// Apply sets the Authorization header, or returns ErrTokenExpired.
func (b *BearerToken) Apply(_ context.Context, req *resty.Request) error {
	if !b.expiresAt.IsZero() && !b.now().Before(b.expiresAt) {
		return fmt.Errorf("%w at %s", ErrTokenExpired, b.expiresAt.UTC().Format(time.RFC3339))
	}
	req.SetHeader("Authorization", "Bearer "+b.token)
	return nil
}

// jwtExpiry returns the exp claim of a JWT, or the zero time if the token is
// not a parseable JWT or carries no exp.
func jwtExpiry(token string) time.Time {
	if strings.Count(token, ".") != 2 {
		return time.Time{}
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

var _ Credentials = (*BearerToken)(nil)
