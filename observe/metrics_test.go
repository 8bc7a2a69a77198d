package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newManualMetrics(t *testing.T) (Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumValue(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: data is %T, want Sum[int64]", m.Name, m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_RecordRequest(t *testing.T) {
	m, reader := newManualMetrics(t)
	ctx := context.Background()
	meta := RequestMeta{Method: "GET", Endpoint: "/health"}

	m.RecordRequest(ctx, meta, 15*time.Millisecond, Outcome{StatusCode: 200, Attempts: 1}, nil)
	m.RecordRequest(ctx, meta, 3*time.Second, Outcome{StatusCode: 503, Attempts: 4}, errors.New("503"))

	got := collect(t, reader)

	if v := sumValue(t, got["telemetry.client.requests"]); v != 2 {
		t.Errorf("requests = %d, want 2", v)
	}
	if v := sumValue(t, got["telemetry.client.errors"]); v != 1 {
		t.Errorf("errors = %d, want 1", v)
	}
	if v := sumValue(t, got["telemetry.client.retries"]); v != 3 {
		t.Errorf("retries = %d, want 3", v)
	}

	hist, ok := got["telemetry.client.duration_ms"].Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("duration data is %T", got["telemetry.client.duration_ms"].Data)
	}
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	if count != 2 {
		t.Errorf("duration observations = %d, want 2", count)
	}
}

func TestMetrics_RecordFallback(t *testing.T) {
	m, reader := newManualMetrics(t)

	m.RecordFallback(context.Background(), "/health/ready")
	m.RecordFallback(context.Background(), "/metrics")

	got := collect(t, reader)
	if v := sumValue(t, got["telemetry.report.fallbacks"]); v != 2 {
		t.Errorf("fallbacks = %d, want 2", v)
	}
}

func TestNopMetrics(t *testing.T) {
	m := NopMetrics()
	m.RecordRequest(context.Background(), RequestMeta{}, 0, Outcome{}, errors.New("x"))
	m.RecordFallback(context.Background(), "/health")
}
