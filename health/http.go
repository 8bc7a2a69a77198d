package health

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// LivenessHandler returns an HTTP handler for liveness probes of the local
// process.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ReportSource produces aggregated reports. *Aggregator implements it.
type ReportSource interface {
	GetHealthWithDetails(ctx context.Context) AggregatedReport
}

// ReadinessHandler returns an HTTP handler that reports the remote service's
// overall status as plain text.
func ReadinessHandler(src ReportSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := OverallStatus(src.GetHealthWithDetails(r.Context()))

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(statusCode(status))

		switch status {
		case StatusHealthy:
			_, _ = w.Write([]byte("OK"))
		case StatusDegraded:
			_, _ = w.Write([]byte("DEGRADED"))
		default:
			_, _ = w.Write([]byte("UNHEALTHY"))
		}
	}
}

// ReportResponse is the JSON response of ReportHandler.
type ReportResponse struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Report    AggregatedReport `json:"report"`
}

// ReportHandler returns an HTTP handler that serves the aggregated report.
func ReportHandler(src ReportSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := src.GetHealthWithDetails(r.Context())
		status := OverallStatus(report)

		response := ReportResponse{
			Status:    status.String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Report:    report,
		}

		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(response); err != nil {
			http.Error(w, "encode report: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode(status))
		_, _ = w.Write(buf.Bytes())
	}
}

// RegisterHandlers mounts the handlers on r.
func RegisterHandlers(r chi.Router, src ReportSource) {
	r.Get("/healthz", LivenessHandler())
	r.Get("/readyz", ReadinessHandler(src))
	r.Get("/report", ReportHandler(src))
}

func statusCode(s Status) int {
	if s == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
