package health

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/jonwraymond/telemetryclient/metrics"
	"github.com/jonwraymond/telemetryclient/observe"
	"github.com/jonwraymond/telemetryclient/resilience"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestAggregator(g *fakeGetter, m *fakeMetrics, cfg AggregatorConfig) *Aggregator {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return fixedNow }
	}
	return NewAggregator(NewClient(g), m, cfg)
}

func TestNewAggregator_Defaults(t *testing.T) {
	agg := NewAggregator(NewClient(newFakeGetter()), &fakeMetrics{})

	if agg.config.Timeout != 10*time.Second {
		t.Errorf("Default timeout = %v, want 10s", agg.config.Timeout)
	}
	if agg.config.Detailed {
		t.Error("Default Detailed should be false")
	}
	if agg.config.Now == nil || agg.config.Logger == nil || agg.config.Metrics == nil {
		t.Error("defaults should be filled in")
	}
}

func TestGetHealthWithDetails_AllSucceed(t *testing.T) {
	mem := 1024.0
	m := &fakeMetrics{m: metrics.SystemMetrics{Uptime: 5, RequestCount: 10, ErrorRate: 0.01, MemoryUsage: &mem}}
	agg := newTestAggregator(newFakeGetter(), m, AggregatorConfig{})

	report := agg.GetHealthWithDetails(context.Background())

	if report.Errors == nil || len(report.Errors) != 0 {
		t.Fatalf("Errors = %#v, want empty non-nil slice", report.Errors)
	}
	if report.Health.Status != StatusHealthy || report.Health.Version != "1.4.2" {
		t.Errorf("Health = %+v", report.Health)
	}
	if report.Readiness.Status != "ready" || report.Liveness.Status != "alive" {
		t.Errorf("probes = %+v %+v", report.Readiness, report.Liveness)
	}
	if diff := cmp.Diff(m.m, report.Metrics); diff != "" {
		t.Errorf("Metrics mismatch (-want +got):\n%s", diff)
	}
	if got := OverallStatus(report); got != StatusHealthy {
		t.Errorf("OverallStatus() = %v, want healthy", got)
	}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !bytes.Contains(data, []byte(`"errors":[]`)) {
		t.Errorf("errors should encode as an empty list: %s", data)
	}
}

func TestGetHealthWithDetails_PartialFailure(t *testing.T) {
	g := newFakeGetter()
	g.errs[PathReadiness] = errors.New("GET /health/ready: 503 Service Unavailable")
	m := &fakeMetrics{err: errors.New("GET /metrics: dial tcp: connection refused")}

	var logs bytes.Buffer
	agg := newTestAggregator(g, m, AggregatorConfig{Logger: observe.NewLoggerWithWriter("warn", &logs)})

	report := agg.GetHealthWithDetails(context.Background())

	wantErrors := []EndpointError{
		{Endpoint: "/health/ready", Error: "GET /health/ready: 503 Service Unavailable"},
		{Endpoint: "/metrics", Error: "GET /metrics: dial tcp: connection refused"},
	}
	if diff := cmp.Diff(wantErrors, report.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}

	if report.Health.Status != StatusHealthy || report.Health.Version != "1.4.2" {
		t.Errorf("Health should carry the real value, got %+v", report.Health)
	}
	if report.Liveness.Status != "alive" {
		t.Errorf("Liveness should carry the real value, got %+v", report.Liveness)
	}

	if diff := cmp.Diff(FallbackReadiness(fixedNow), report.Readiness); diff != "" {
		t.Errorf("Readiness mismatch (-want +got):\n%s", diff)
	}
	if report.Readiness.Status != "not ready" || report.Readiness.Timestamp != fixedNow.UnixMilli() {
		t.Errorf("Readiness = %+v", report.Readiness)
	}
	if diff := cmp.Diff(metrics.SystemMetrics{ErrorRate: 1}, report.Metrics); diff != "" {
		t.Errorf("Metrics mismatch (-want +got):\n%s", diff)
	}

	if got := OverallStatus(report); got != StatusUnhealthy {
		t.Errorf("OverallStatus() = %v, want unhealthy", got)
	}
	if n := strings.Count(logs.String(), "using fallback"); n != 2 {
		t.Errorf("expected 2 warnings, got %d:\n%s", n, logs.String())
	}
}

func TestGetHealthWithDetails_AllFail(t *testing.T) {
	g := newFakeGetter()
	// Health finishes last; its error must still come first.
	g.hooks[PathHealth] = func(ctx context.Context) error {
		time.Sleep(30 * time.Millisecond)
		return errors.New("health down")
	}
	g.errs[PathReadiness] = errors.New("ready down")
	g.errs[PathLiveness] = errors.New("live down")
	m := &fakeMetrics{err: errors.New("metrics down")}

	report := newTestAggregator(g, m, AggregatorConfig{}).GetHealthWithDetails(context.Background())

	wantErrors := []EndpointError{
		{Endpoint: "/health", Error: "health down"},
		{Endpoint: "/health/ready", Error: "ready down"},
		{Endpoint: "/health/live", Error: "live down"},
		{Endpoint: "/metrics", Error: "metrics down"},
	}
	if diff := cmp.Diff(wantErrors, report.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}

	ts := fixedNow.UnixMilli()
	wantHealth := HealthCheckResult{
		Status:      StatusUnhealthy,
		Timestamp:   ts,
		Version:     "unknown",
		Environment: "unknown",
		Checks: map[string]CheckResult{
			"database":       {Status: StatusUnhealthy, LastCheck: ts, Error: "Health check failed"},
			"kv":             {Status: StatusUnhealthy, LastCheck: ts, Error: "Health check failed"},
			"r2":             {Status: StatusUnhealthy, LastCheck: ts, Error: "Health check failed"},
			"durableObjects": {Status: StatusUnhealthy, LastCheck: ts, Error: "Health check failed"},
			"secrets":        {Status: StatusUnhealthy, LastCheck: ts, Error: "Health check failed"},
		},
	}
	if diff := cmp.Diff(wantHealth, report.Health); diff != "" {
		t.Errorf("Health mismatch (-want +got):\n%s", diff)
	}
	if report.Liveness != (ProbeResult{Status: "not alive", Timestamp: ts}) {
		t.Errorf("Liveness = %+v", report.Liveness)
	}
}

func TestGetHealthWithDetails_EveryFailureSubset(t *testing.T) {
	var wantHealth HealthCheckResult
	if err := json.Unmarshal([]byte(newFakeGetter().bodies[PathHealth]), &wantHealth); err != nil {
		t.Fatal(err)
	}
	wantReadiness := ProbeResult{Status: "ready", Timestamp: 1700000000001}
	wantLiveness := ProbeResult{Status: "alive", Timestamp: 1700000000002}
	mem := 512.0
	wantMetrics := metrics.SystemMetrics{Uptime: 7, RequestCount: 3, MemoryUsage: &mem}

	endpoints := []string{PathHealth, PathReadiness, PathLiveness, metrics.DefaultPath}
	failures := []string{"boom", "ready down", "live down", "metrics down"}

	for mask := 0; mask < 1<<len(endpoints); mask++ {
		failed := func(i int) bool { return mask&(1<<i) != 0 }

		var name []string
		for i, ep := range endpoints {
			if failed(i) {
				name = append(name, ep)
			}
		}
		if len(name) == 0 {
			name = append(name, "none")
		}

		t.Run(strings.Join(name, "+"), func(t *testing.T) {
			g := newFakeGetter()
			m := &fakeMetrics{m: wantMetrics}
			for i, ep := range endpoints[:3] {
				if failed(i) {
					g.errs[ep] = errors.New(failures[i])
				}
			}
			if failed(3) {
				m.err = errors.New(failures[3])
			}

			report := newTestAggregator(g, m, AggregatorConfig{}).GetHealthWithDetails(context.Background())

			wantErrors := []EndpointError{}
			for i, ep := range endpoints {
				if failed(i) {
					wantErrors = append(wantErrors, EndpointError{Endpoint: ep, Error: failures[i]})
				}
			}
			if diff := cmp.Diff(wantErrors, report.Errors); diff != "" {
				t.Errorf("Errors mismatch (-want +got):\n%s", diff)
			}

			check := func(field string, fail bool, fallback, real, got any) {
				want := real
				if fail {
					want = fallback
				}
				if diff := cmp.Diff(want, got); diff != "" {
					t.Errorf("%s mismatch (-want +got):\n%s", field, diff)
				}
			}
			check("Health", failed(0), FallbackHealth(fixedNow), wantHealth, report.Health)
			check("Readiness", failed(1), FallbackReadiness(fixedNow), wantReadiness, report.Readiness)
			check("Liveness", failed(2), FallbackLiveness(fixedNow), wantLiveness, report.Liveness)
			check("Metrics", failed(3), FallbackMetrics(), wantMetrics, report.Metrics)
		})
	}
}

func TestGetHealthWithDetails_FetchesConcurrently(t *testing.T) {
	b := newBarrier(4)
	g := newFakeGetter()
	g.hooks[PathHealth] = b.wait
	g.hooks[PathReadiness] = b.wait
	g.hooks[PathLiveness] = b.wait
	m := &fakeMetrics{hook: b.wait}

	report := newTestAggregator(g, m, AggregatorConfig{}).GetHealthWithDetails(context.Background())

	if len(report.Errors) != 0 {
		t.Fatalf("all four fetches should be in flight together, got errors %v", report.Errors)
	}
}

func TestGetHealthWithDetails_FailureDoesNotCancelSiblings(t *testing.T) {
	g := newFakeGetter()
	g.errs[PathHealth] = errors.New("fast failure")
	g.hooks[PathLiveness] = func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
			return nil
		}
	}

	report := newTestAggregator(g, &fakeMetrics{}, AggregatorConfig{}).GetHealthWithDetails(context.Background())

	if len(report.Errors) != 1 || report.Errors[0].Endpoint != "/health" {
		t.Fatalf("Errors = %v, want only /health", report.Errors)
	}
	if report.Liveness.Status != "alive" {
		t.Errorf("Liveness = %+v, want real value", report.Liveness)
	}
}

func TestGetHealthWithDetails_RecoversPanics(t *testing.T) {
	m := &fakeMetrics{hook: func(context.Context) error { panic("boom") }}

	report := newTestAggregator(newFakeGetter(), m, AggregatorConfig{}).GetHealthWithDetails(context.Background())

	if len(report.Errors) != 1 || report.Errors[0].Endpoint != "/metrics" {
		t.Fatalf("Errors = %v", report.Errors)
	}
	if !strings.Contains(report.Errors[0].Error, "boom") {
		t.Errorf("error should mention the panic value: %q", report.Errors[0].Error)
	}
	if report.Metrics.ErrorRate != 1 {
		t.Errorf("Metrics = %+v, want fallback", report.Metrics)
	}
}

func TestGetHealthWithDetails_BranchTimeout(t *testing.T) {
	g := newFakeGetter()
	g.hooks[PathReadiness] = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}

	agg := newTestAggregator(g, &fakeMetrics{}, AggregatorConfig{Timeout: 20 * time.Millisecond})
	report := agg.GetHealthWithDetails(context.Background())

	if len(report.Errors) != 1 {
		t.Fatalf("Errors = %v", report.Errors)
	}
	want := EndpointError{Endpoint: "/health/ready", Error: resilience.ErrTimeout.Error()}
	if report.Errors[0] != want {
		t.Errorf("Errors[0] = %+v, want %+v", report.Errors[0], want)
	}
}

func TestGetHealthWithDetails_Detailed(t *testing.T) {
	g := newFakeGetter()
	agg := newTestAggregator(g, &fakeMetrics{}, AggregatorConfig{Detailed: true})

	report := agg.GetHealthWithDetails(context.Background())

	if report.Health.Status != StatusDegraded {
		t.Errorf("Health.Status = %v, want degraded from /health/detailed", report.Health.Status)
	}
	for _, path := range g.calls {
		if path == PathHealth {
			t.Error("/health should not be fetched in detailed mode")
		}
	}

	g.errs[PathDetailedHealth] = errors.New("nope")
	report = agg.GetHealthWithDetails(context.Background())
	if len(report.Errors) != 1 || report.Errors[0].Endpoint != PathDetailedHealth {
		t.Errorf("Errors = %v, want /health/detailed entry", report.Errors)
	}
}

func TestOverallStatus(t *testing.T) {
	healthy := AggregatedReport{
		Health:    HealthCheckResult{Status: StatusHealthy, Checks: map[string]CheckResult{"db": {Status: StatusHealthy}}},
		Readiness: ProbeResult{Status: "ready"},
		Liveness:  ProbeResult{Status: "alive"},
		Errors:    []EndpointError{},
	}

	tests := []struct {
		name   string
		mutate func(r *AggregatedReport)
		want   Status
	}{
		{"healthy", func(r *AggregatedReport) {}, StatusHealthy},
		{"health unhealthy", func(r *AggregatedReport) { r.Health.Status = StatusUnhealthy }, StatusUnhealthy},
		{"not ready", func(r *AggregatedReport) { r.Readiness.Status = "not ready" }, StatusUnhealthy},
		{"not alive", func(r *AggregatedReport) { r.Liveness.Status = "not alive" }, StatusUnhealthy},
		{"health degraded", func(r *AggregatedReport) { r.Health.Status = StatusDegraded }, StatusDegraded},
		{"check degraded", func(r *AggregatedReport) {
			r.Health.Checks = map[string]CheckResult{"db": {Status: StatusDegraded}}
		}, StatusDegraded},
		{"metrics failed", func(r *AggregatedReport) {
			r.Errors = []EndpointError{{Endpoint: "/metrics", Error: "x"}}
		}, StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := healthy
			r.Health.Checks = map[string]CheckResult{"db": {Status: StatusHealthy}}
			tt.mutate(&r)
			if got := OverallStatus(r); got != tt.want {
				t.Errorf("OverallStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}
