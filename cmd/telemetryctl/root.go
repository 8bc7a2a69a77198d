package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/telemetryclient/client"
	"github.com/jonwraymond/telemetryclient/config"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	baseURL    string
	token      string
	timeout    time.Duration
	maxRetries int
	logLevel   string
	output     string
}

func newRootCommand() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "telemetryctl",
		Short: "Query health and metrics of a telemetry service",
		Long: `telemetryctl fetches health, readiness, liveness and metrics from a
telemetry service and prints them as a table or JSON.

Configuration is read from --config (YAML), then TELEMETRY_* environment
variables, then flags.

Quick start:
  telemetryctl report --base-url https://svc.example.com
  telemetryctl metrics -o json
  telemetryctl parse metrics.txt
  telemetryctl serve --listen :9464`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Path to a YAML config file")
	pf.StringVar(&flags.baseURL, "base-url", "", "Base URL of the telemetry service")
	pf.StringVar(&flags.token, "token", "", "Bearer token or secret reference (secretref:env:NAME)")
	pf.DurationVar(&flags.timeout, "timeout", 0, "Per-attempt request timeout")
	pf.IntVar(&flags.maxRetries, "max-retries", 0, "Retries after the first attempt (0 disables)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVarP(&flags.output, "output", "o", "table", "Output format: table or json")

	cmd.AddCommand(newReportCommand(&flags))
	cmd.AddCommand(newMetricsCommand(&flags))
	cmd.AddCommand(newProbeCommand(&flags, "health", "Fetch /health"))
	cmd.AddCommand(newProbeCommand(&flags, "ready", "Fetch /health/ready"))
	cmd.AddCommand(newProbeCommand(&flags, "live", "Fetch /health/live"))
	cmd.AddCommand(newParseCommand(&flags))
	cmd.AddCommand(newServeCommand(&flags))

	return cmd
}

// loadConfig layers flags that were set explicitly over file and env config.
func loadConfig(cmd *cobra.Command, flags *globalFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, err
	}

	pf := cmd.Flags()
	if pf.Changed("base-url") {
		cfg.BaseURL = flags.baseURL
	}
	if pf.Changed("token") {
		cfg.Auth.Token = flags.token
	}
	if pf.Changed("timeout") {
		cfg.Timeout = flags.timeout
	}
	if pf.Changed("max-retries") {
		n := flags.maxRetries
		cfg.Retry.MaxRetries = &n
	}
	if pf.Changed("log-level") {
		cfg.Observe.Logging.Level = flags.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// withClient builds a client, runs fn and closes the client.
func withClient(cmd *cobra.Command, flags *globalFlags, fn func(ctx context.Context, c *client.Client) error) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, err := client.New(ctx, cfg, client.WithUserAgent("telemetryctl"))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.Close(shutdownCtx)
	}()

	return fn(ctx, c)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func checkOutput(format string) error {
	switch format {
	case "table", "json":
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table or json)", format)
	}
}
