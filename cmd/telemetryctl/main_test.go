package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/telemetryclient/client"
	"github.com/jonwraymond/telemetryclient/config"
	"github.com/jonwraymond/telemetryclient/health"
	"github.com/jonwraymond/telemetryclient/metrics"
	"github.com/jonwraymond/telemetryclient/observe"
)

const testConfigYAML = `
timeout: 2s
retry:
  max_retries: 0
  retry_delay: 1ms
health:
  timeout: 2s
observe:
  logging:
    enabled: false
`

func fakeService() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeBody(w, `{"status":"healthy","timestamp":1700000000000,"version":"2.0.0","environment":"prod","checks":{"database":{"status":"healthy","lastCheck":1700000000000}}}`)
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		writeBody(w, `{"status":"ready","timestamp":1700000000000}`)
	})
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeBody(w, `{"status":"alive","timestamp":1700000000000}`)
	})
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Accept") == "application/json" {
			w.WriteHeader(http.StatusNotAcceptable)
			return
		}
		_, _ = w.Write([]byte("# TYPE process_uptime_seconds gauge\nprocess_uptime_seconds 42\nhttp_requests_total 5\n"))
	})
	return r
}

func writeBody(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "telemetry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigYAML), 0o600))
	return path
}

func runCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestReport_JSON(t *testing.T) {
	srv := httptest.NewServer(fakeService())
	defer srv.Close()

	out, _, err := runCommand(t, "", "report", "--config", writeConfig(t), "--base-url", srv.URL, "-o", "json")
	require.NoError(t, err)

	var report health.AggregatedReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Empty(t, report.Errors)
	assert.Equal(t, "2.0.0", report.Health.Version)
	assert.Equal(t, "ready", report.Readiness.Status)
	assert.Equal(t, 42.0, report.Metrics.Uptime)
	assert.Equal(t, 5.0, report.Metrics.RequestCount)
}

func TestReport_Table(t *testing.T) {
	srv := httptest.NewServer(fakeService())
	defer srv.Close()

	out, _, err := runCommand(t, "", "report", "--config", writeConfig(t), "--base-url", srv.URL)
	require.NoError(t, err)

	assert.Contains(t, out, "OVERALL")
	assert.Contains(t, out, "healthy")
	assert.Contains(t, out, "database")
	assert.NotContains(t, out, "ENDPOINT")
}

func TestReport_UnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	out, _, err := runCommand(t, "", "report", "--config", writeConfig(t), "--base-url", url, "-o", "json")
	require.NoError(t, err, "report succeeds with fallbacks")

	var report health.AggregatedReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Errors, 4)
	assert.Equal(t, "not ready", report.Readiness.Status)

	_, stderr, err := runCommand(t, "", "report", "--config", writeConfig(t), "--base-url", url, "--fail-on-unhealthy")
	require.ErrorIs(t, err, errUnhealthy)
	assert.Contains(t, stderr, "service is unhealthy")
}

func TestMetrics_TextFallback(t *testing.T) {
	srv := httptest.NewServer(fakeService())
	defer srv.Close()

	out, _, err := runCommand(t, "", "metrics", "--config", writeConfig(t), "--base-url", srv.URL, "-o", "json")
	require.NoError(t, err)

	var m metrics.SystemMetrics
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, 42.0, m.Uptime)
	assert.Nil(t, m.MemoryUsage)
	assert.Contains(t, m.Raw, "http_requests_total")
}

func TestProbeCommands(t *testing.T) {
	srv := httptest.NewServer(fakeService())
	defer srv.Close()

	tests := []struct {
		name string
		want string
	}{
		{name: "ready", want: "ready\n"},
		{name: "live", want: "alive\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runCommand(t, "", tt.name, "--config", writeConfig(t), "--base-url", srv.URL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	out, _, err := runCommand(t, "", "health", "--config", writeConfig(t), "--base-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "2.0.0")

	_, _, err = runCommand(t, "", "health", "--detailed", "--config", writeConfig(t), "--base-url", srv.URL)
	require.Error(t, err, "fake service has no /health/detailed")
}

func TestParse_Stdin(t *testing.T) {
	input := "# HELP up Target up.\n# TYPE up gauge\nup{job=\"api\"} 1\nbroken line here\n"

	out, _, err := runCommand(t, input, "parse", "-o", "json")
	require.NoError(t, err)

	var table map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &table))
	assert.Len(t, table, 1)
	assert.Contains(t, string(table["up"]), `"gauge"`)

	out, _, err = runCommand(t, input, "parse")
	require.NoError(t, err)
	assert.Contains(t, out, "job=api")
}

func TestParse_Project(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.txt")
	require.NoError(t, os.WriteFile(path, []byte("process_uptime_seconds 12\nprocess_memory_usage_bytes 2048\n"), 0o600))

	out, _, err := runCommand(t, "", "parse", path, "--project", "--config", writeConfig(t), "-o", "json")
	require.NoError(t, err)

	var m metrics.SystemMetrics
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, 12.0, m.Uptime)
	require.NotNil(t, m.MemoryUsage)
	assert.Equal(t, 2048.0, *m.MemoryUsage)
}

func TestParse_MissingFile(t *testing.T) {
	_, _, err := runCommand(t, "", "parse", filepath.Join(t.TempDir(), "nope.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestUnknownOutputFormat(t *testing.T) {
	_, _, err := runCommand(t, "", "parse", "-o", "yaml")
	require.ErrorContains(t, err, "unknown output format")
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	cmd := newRootCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--config", writeConfig(t), "--base-url", "https://svc.example.com", "--max-retries", "5", "--timeout", "3s"}))

	flags := globalFlags{}
	flags.configPath, _ = cmd.Flags().GetString("config")
	flags.baseURL, _ = cmd.Flags().GetString("base-url")
	flags.maxRetries, _ = cmd.Flags().GetInt("max-retries")
	flags.timeout, _ = cmd.Flags().GetDuration("timeout")

	cfg, err := loadConfig(cmd, &flags)
	require.NoError(t, err)
	assert.Equal(t, "https://svc.example.com", cfg.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	require.NotNil(t, cfg.Retry.MaxRetries)
	assert.Equal(t, 5, *cfg.Retry.MaxRetries)
	assert.Equal(t, time.Millisecond, cfg.Retry.RetryDelay, "unset flags keep file values")
}

func TestServeRouter(t *testing.T) {
	upstream := httptest.NewServer(fakeService())
	defer upstream.Close()

	cfg := config.Defaults()
	cfg.BaseURL = upstream.URL
	cfg.Retry.RetryDelay = time.Millisecond
	cfg.Observe.Logging.Enabled = false

	c, err := client.New(context.Background(), cfg, client.WithObserver(observe.Noop()))
	require.NoError(t, err)
	defer func() { _ = c.Close(context.Background()) }()

	srv := httptest.NewServer(newServeRouter(c, false, 0))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body health.ReportResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "2.0.0", body.Report.Health.Version)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "/metrics is only mounted with --prometheus")
}
