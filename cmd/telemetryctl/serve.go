package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/telemetryclient/cache"
	"github.com/jonwraymond/telemetryclient/client"
	"github.com/jonwraymond/telemetryclient/health"
	"github.com/jonwraymond/telemetryclient/observe"
	"github.com/jonwraymond/telemetryclient/observe/exporters"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(flags *globalFlags) *cobra.Command {
	var (
		listen     string
		prometheus bool
		cacheTTL   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the aggregated report over HTTP",
		Long: `Run an HTTP server that re-exposes the remote service's state.

Routes:
  /healthz   always 200
  /readyz    200 unless the aggregated status is unhealthy
  /report    the full aggregated report as JSON

/readyz and /report share one aggregated report for --cache-ttl.
  /metrics   client telemetry in Prometheus format (with --prometheus)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			if prometheus {
				cfg.Observe.Metrics.Enabled = true
				cfg.Observe.Metrics.Exporter = "prometheus"
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, err := client.New(ctx, cfg, client.WithUserAgent("telemetryctl"))
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				_ = c.Close(shutdownCtx)
			}()

			expose := cfg.Observe.Metrics.Enabled && cfg.Observe.Metrics.Exporter == "prometheus"
			srv := &http.Server{
				Addr:              listen,
				Handler:           newServeRouter(c, expose, cacheTTL),
				ReadHeaderTimeout: 5 * time.Second,
			}
			return runServer(ctx, srv, c.Logger())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":9464", "Address to listen on")
	cmd.Flags().BoolVar(&prometheus, "prometheus", false, "Expose client telemetry at /metrics")
	cmd.Flags().DurationVar(&cacheTTL, "cache-ttl", cache.DefaultTTL, "How long to reuse an aggregated report (0 disables)")
	return cmd
}

// newServeRouter mounts the health routes and, optionally, /metrics.
func newServeRouter(c *client.Client, exposeMetrics bool, cacheTTL time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	health.RegisterHandlers(r, health.CachedReports(c.Aggregator(), cache.PolicyFor(cacheTTL)))
	if exposeMetrics {
		r.Handle("/metrics", exporters.MetricsHandler())
	}
	return r
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server, logger observe.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening", observe.Field{Key: "addr", Value: srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

