package cache

import "time"

// Report reuse bounds.
const (
	// DefaultTTL is the reuse window of DefaultPolicy.
	DefaultTTL = 2 * time.Second

	// MaxTTL is the longest a report is ever reused, whatever the policy says.
	MaxTTL = time.Minute
)

// Policy says how long a loaded value may be served from the cache.
type Policy struct {
	// TTL is the reuse window. Zero or negative disables caching.
	TTL time.Duration
}

// DefaultPolicy reuses values for DefaultTTL.
func DefaultPolicy() Policy {
	return Policy{TTL: DefaultTTL}
}

// NoCachePolicy fetches on every load.
func NoCachePolicy() Policy {
	return Policy{}
}

// PolicyFor returns a Policy with the given reuse window, as taken from a
// flag or config value. Non-positive ttl disables caching.
func PolicyFor(ttl time.Duration) Policy {
	return Policy{TTL: ttl}
}

// Enabled reports whether values are cached at all.
func (p Policy) Enabled() bool {
	return p.TTL > 0
}

// Lifetime returns the reuse window clamped to MaxTTL, or 0 when disabled.
func (p Policy) Lifetime() time.Duration {
	if !p.Enabled() {
		return 0
	}
	return min(p.TTL, MaxTTL)
}
