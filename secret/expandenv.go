package secret

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

// ExpandEnvStrict expands environment variables in s.
//
//   - ${VAR} expands to the value of VAR and is an error when VAR is unset.
//   - $VAR expands to the value of VAR, or to "" when VAR is unset.
//   - $$ is a literal $.
//
// All missing variables are reported together, sorted by name.
func ExpandEnvStrict(s string) (string, error) {
	var (
		b       strings.Builder
		missing []string
	)
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '$' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}

		next := s[i+1]
		switch {
		case next == '$':
			b.WriteByte('$')
			i++
		case next == '{':
			end := strings.IndexByte(s[i+2:], '}')
			name := ""
			if end >= 0 {
				name = s[i+2 : i+2+end]
			}
			if !validEnvName(name) {
				b.WriteByte(s[i])
				continue
			}
			if v, ok := os.LookupEnv(name); ok {
				b.WriteString(v)
			} else if !slices.Contains(missing, name) {
				missing = append(missing, name)
			}
			i += 2 + end
		case isEnvNameStart(next):
			j := i + 1
			for j < len(s) && isEnvNameChar(s[j]) {
				j++
			}
			b.WriteString(os.Getenv(s[i+1 : j]))
			i = j - 1
		default:
			b.WriteByte(s[i])
		}
	}

	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}
	return b.String(), nil
}

func validEnvName(name string) bool {
	if name == "" || !isEnvNameStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isEnvNameChar(name[i]) {
			return false
		}
	}
	return true
}

func isEnvNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isEnvNameChar(c byte) bool {
	return isEnvNameStart(c) || (c >= '0' && c <= '9')
}
