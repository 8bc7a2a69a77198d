package secret

import "context"

// Provider looks up a secret by key.
//
// Implementations must be safe for concurrent use and must never log the
// values they return. A Provider that holds resources may also implement
// io.Closer; Resolver.Close calls it.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, key string) (string, error)
}
