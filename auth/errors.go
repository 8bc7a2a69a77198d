package auth

import "errors"

// Sentinel errors for request credentials.
var (
	ErrMissingCredentials = errors.New("auth: missing credentials")
	ErrTokenExpired       = errors.New("auth: token expired")
	ErrUnknownKind        = errors.New("auth: unknown credentials kind")
	ErrInvalidHeaderName  = errors.New("auth: invalid header name")
)
