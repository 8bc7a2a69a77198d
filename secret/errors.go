package secret

import "errors"

// Sentinel errors for secret resolution.
var (
	ErrMissingEnv       = errors.New("secret: missing required environment variables")
	ErrProviderNotFound = errors.New("secret: provider not registered")
	ErrInvalidRef       = errors.New("secret: invalid secret reference")
	ErrEmptyValue       = errors.New("secret: provider returned empty value")
	ErrNotFound         = errors.New("secret: not found")
)
