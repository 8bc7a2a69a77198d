package secret

import "strings"

// RefPrefix marks a value as a secret reference.
const RefPrefix = "secretref:"

// Ref names a secret held by a provider, written as
//
//	secretref:<provider>:<key>
type Ref struct {
	Provider string
	Key      string
}

// ParseRef parses s as a complete secret reference.
func ParseRef(s string) (Ref, bool) {
	rest, ok := strings.CutPrefix(s, RefPrefix)
	if !ok {
		return Ref{}, false
	}
	provider, key, ok := strings.Cut(rest, ":")
	if !ok || strings.TrimSpace(provider) == "" || strings.TrimSpace(key) == "" {
		return Ref{}, false
	}
	return Ref{Provider: provider, Key: key}, true
}

// String returns the reference in its textual form.
func (r Ref) String() string {
	return RefPrefix + r.Provider + ":" + r.Key
}
