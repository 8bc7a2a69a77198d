package secret

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/jonwraymond/telemetryclient/observe"
)

// Resolver turns configured credential values into secrets.
//
// A value is first expanded with ExpandEnvStrict. If the result is a
// complete reference it is resolved through the named provider; otherwise
// any references embedded in it (such as "Bearer secretref:env:TOKEN") are
// replaced in place. Values without references pass through unchanged.
//
// A Resolver is safe for concurrent use once constructed.
type Resolver struct {
	providers  map[string]Provider
	allowEmpty bool
	logger     observe.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithProvider registers p, replacing any provider with the same name.
func WithProvider(p Provider) ResolverOption {
	return func(r *Resolver) {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
}

// AllowEmpty accepts empty values from providers. By default an empty
// value is an error, since an empty token is never a usable credential.
func AllowEmpty() ResolverOption {
	return func(r *Resolver) { r.allowEmpty = true }
}

// WithResolverLogger logs each lookup at debug level. Only provider names
// and keys are logged.
func WithResolverLogger(l observe.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a Resolver with no providers beyond those in opts.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		providers: make(map[string]Provider),
		logger:    observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewDefaultResolver creates a Resolver with the env and file providers
// registered ahead of opts.
func NewDefaultResolver(opts ...ResolverOption) *Resolver {
	base := []ResolverOption{WithProvider(NewEnvProvider()), WithProvider(NewFileProvider(""))}
	return NewResolver(append(base, opts...)...)
}

// Close closes every provider that implements io.Closer.
func (r *Resolver) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, p := range r.providers {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Resolve expands value and resolves the secret references in it.
func (r *Resolver) Resolve(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnvStrict(value)
	if err != nil {
		return "", err
	}
	if r == nil {
		return expanded, nil
	}

	if ref, ok := ParseRef(expanded); ok {
		return r.lookup(ctx, ref)
	}
	return r.replaceEmbedded(ctx, expanded)
}

func (r *Resolver) lookup(ctx context.Context, ref Ref) (string, error) {
	p, ok := r.providers[ref.Provider]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrProviderNotFound, ref.Provider)
	}

	r.logger.Debug(ctx, "resolving secret",
		observe.Field{Key: "provider", Value: ref.Provider},
		observe.Field{Key: "key", Value: ref.Key},
	)

	v, err := p.Resolve(ctx, ref.Key)
	if err != nil {
		return "", fmt.Errorf("secret: %s: %w", ref.Provider, err)
	}
	if v == "" && !r.allowEmpty {
		return "", fmt.Errorf("%w: %s", ErrEmptyValue, ref)
	}
	return v, nil
}

var embeddedRef = regexp.MustCompile(`secretref:([^:\s]+):(\S+)`)

func (r *Resolver) replaceEmbedded(ctx context.Context, value string) (string, error) {
	var firstErr error
	out := embeddedRef.ReplaceAllStringFunc(value, func(match string) string {
		if firstErr != nil {
			return match
		}
		ref, ok := ParseRef(match)
		if !ok {
			firstErr = fmt.Errorf("%w: %q", ErrInvalidRef, match)
			return match
		}
		v, err := r.lookup(ctx, ref)
		if err != nil {
			firstErr = err
			return match
		}
		return v
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}
