package health

import (
	"fmt"
	"strings"
)

// Status represents the health status reported by the service.
//
// The zero value is StatusUnhealthy.
type Status int

const (
	// StatusUnhealthy indicates the component is not functioning properly.
	StatusUnhealthy Status = iota
	// StatusDegraded indicates the component is functioning but with issues.
	StatusDegraded
	// StatusHealthy indicates the component is functioning normally.
	StatusHealthy
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// ParseStatus parses a status string. Unknown values map to StatusUnhealthy.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "healthy":
		return StatusHealthy
	case "degraded":
		return StatusDegraded
	default:
		return StatusUnhealthy
	}
}

// MarshalText encodes the status as its string form.
func (s Status) MarshalText() ([]byte, error) {
	switch s {
	case StatusHealthy, StatusDegraded, StatusUnhealthy:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("health: invalid status %d", int(s))
	}
}

// UnmarshalText decodes a status string. It never fails; unrecognized
// values decode to StatusUnhealthy.
func (s *Status) UnmarshalText(b []byte) error {
	*s = ParseStatus(string(b))
	return nil
}
