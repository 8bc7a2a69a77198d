// Package auth attaches credentials to outgoing requests.
//
// Three kinds are supported: a bearer token, an API key carried in a header,
// and no credentials at all. Bearer tokens that are JWTs have their exp claim
// checked before every request so an expired token fails locally instead of
// producing a 401 from the remote service.
//
// Credentials are immutable and safe for concurrent use.
package auth
