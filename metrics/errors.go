package metrics

import "errors"

// ErrUnknownField is returned when a projection names a field SystemMetrics
// does not have.
var ErrUnknownField = errors.New("metrics: unknown projection field")
