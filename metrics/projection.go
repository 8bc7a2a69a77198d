package metrics

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/jonwraymond/telemetryclient/exposition"
)

// Field names a SystemMetrics field in a Projection.
type Field string

// Projectable fields.
const (
	FieldUptime              Field = "uptime"
	FieldRequestCount        Field = "requestCount"
	FieldErrorRate           Field = "errorRate"
	FieldAverageResponseTime Field = "averageResponseTime"
	FieldActiveConnections   Field = "activeConnections"
	FieldMemoryUsage         Field = "memoryUsage"
)

// Fields lists every projectable field in declaration order.
var Fields = []Field{
	FieldUptime,
	FieldRequestCount,
	FieldErrorRate,
	FieldAverageResponseTime,
	FieldActiveConnections,
	FieldMemoryUsage,
}

// Projection maps SystemMetrics fields to exposition metric names.
type Projection map[Field]string

// DefaultProjection returns the canonical exposition names.
func DefaultProjection() Projection {
	return Projection{
		FieldUptime:              "process_uptime_seconds",
		FieldRequestCount:        "http_requests_total",
		FieldErrorRate:           "http_request_error_rate",
		FieldAverageResponseTime: "http_request_duration_seconds",
		FieldActiveConnections:   "http_active_connections",
		FieldMemoryUsage:         "process_memory_usage_bytes",
	}
}

// ParseProjection builds a Projection from configuration. Keys are field
// names (case-insensitive); fields not named keep their default metric name.
func ParseProjection(cfg map[string]string) (Projection, error) {
	p := DefaultProjection()
	for _, key := range slices.Sorted(maps.Keys(cfg)) {
		field, ok := lookupField(key)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
		name := strings.TrimSpace(cfg[key])
		if name == "" {
			return nil, fmt.Errorf("metrics: projection for %q: empty metric name", key)
		}
		p[field] = name
	}
	return p, nil
}

// Apply projects table onto SystemMetrics. Metrics absent from the table or
// carrying NaN or an infinity read as 0, except MemoryUsage which stays nil.
// The table is attached as Raw.
func (p Projection) Apply(table exposition.Table) SystemMetrics {
	value := func(f Field) float64 {
		v, _ := finite(table, p[f])
		return v
	}

	m := SystemMetrics{
		Uptime:              value(FieldUptime),
		RequestCount:        value(FieldRequestCount),
		ErrorRate:           value(FieldErrorRate),
		AverageResponseTime: value(FieldAverageResponseTime),
		ActiveConnections:   value(FieldActiveConnections),
		Raw:                 table,
	}
	if v, ok := finite(table, p[FieldMemoryUsage]); ok {
		m.MemoryUsage = &v
	}
	return m
}

func finite(table exposition.Table, name string) (float64, bool) {
	v, ok := table.Value(name)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func lookupField(key string) (Field, bool) {
	key = strings.TrimSpace(key)
	for _, f := range Fields {
		if strings.EqualFold(string(f), key) {
			return f, true
		}
	}
	return "", false
}
