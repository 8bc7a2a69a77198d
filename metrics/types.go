package metrics

import "github.com/jonwraymond/telemetryclient/exposition"

// SystemMetrics is the service-level metrics snapshot.
//
// MemoryUsage is nil when the service did not report it. Raw carries the
// parsed exposition table when the snapshot was built from the text format.
type SystemMetrics struct {
	Uptime              float64          `json:"uptime"`
	RequestCount        float64          `json:"requestCount"`
	ErrorRate           float64          `json:"errorRate"`
	AverageResponseTime float64          `json:"averageResponseTime"`
	ActiveConnections   float64          `json:"activeConnections"`
	MemoryUsage         *float64         `json:"memoryUsage,omitempty"`
	Raw                 exposition.Table `json:"raw,omitempty"`
}
