package cache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// FetchFunc produces a fresh value.
type FetchFunc[V any] func(ctx context.Context) (V, error)

// Loader memoizes a FetchFunc under a single key.
//
// Concurrent misses share one fetch, run with the context of the caller that
// started it. Errors are not cached.
type Loader[V any] struct {
	cache  Cache[V]
	policy Policy
	key    string
	fetch  FetchFunc[V]
	group  singleflight.Group
}

// NewLoader returns a Loader that stores results of fetch in c under key.
func NewLoader[V any](c Cache[V], policy Policy, key string, fetch FetchFunc[V]) (*Loader[V], error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	return &Loader[V]{cache: c, policy: policy, key: key, fetch: fetch}, nil
}

// Load returns the cached value or fetches a new one.
func (l *Loader[V]) Load(ctx context.Context) (V, error) {
	if !l.policy.Enabled() {
		return l.fetch(ctx)
	}
	if v, ok := l.cache.Get(ctx, l.key); ok {
		return v, nil
	}

	res, err, _ := l.group.Do(l.key, func() (any, error) {
		if v, ok := l.cache.Get(ctx, l.key); ok {
			return v, nil
		}
		v, err := l.fetch(ctx)
		if err != nil {
			return nil, err
		}
		_ = l.cache.Set(ctx, l.key, v, l.policy.Lifetime())
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Invalidate drops the cached value.
func (l *Loader[V]) Invalidate(ctx context.Context) error {
	return l.cache.Delete(ctx, l.key)
}
