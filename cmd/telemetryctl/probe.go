package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/telemetryclient/client"
	"github.com/jonwraymond/telemetryclient/health"
)

// newProbeCommand builds the health, ready and live commands.
func newProbeCommand(flags *globalFlags, name, short string) *cobra.Command {
	var detailed bool

	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOutput(flags.output); err != nil {
				return err
			}
			return withClient(cmd, flags, func(ctx context.Context, c *client.Client) error {
				switch name {
				case "health":
					fetch := c.Health
					if detailed {
						fetch = c.DetailedHealth
					}
					res, err := fetch(ctx)
					if err != nil {
						return err
					}
					return printHealth(cmd, flags.output, res)
				case "ready":
					res, err := c.Readiness(ctx)
					if err != nil {
						return err
					}
					return printProbe(cmd, flags.output, res)
				default:
					res, err := c.Liveness(ctx)
					if err != nil {
						return err
					}
					return printProbe(cmd, flags.output, res)
				}
			})
		},
	}

	if name == "health" {
		cmd.Flags().BoolVar(&detailed, "detailed", false, "Fetch /health/detailed")
	}
	return cmd
}

func printHealth(cmd *cobra.Command, format string, res health.HealthCheckResult) error {
	if format == "json" {
		return printJSON(cmd.OutOrStdout(), res)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "STATUS\t%s\n", res.Status)
	fmt.Fprintf(w, "VERSION\t%s\n", res.Version)
	fmt.Fprintf(w, "ENVIRONMENT\t%s\n", res.Environment)
	for _, name := range sortedKeys(res.Checks) {
		check := res.Checks[name]
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, check.Status, check.Error)
	}
	return w.Flush()
}

func printProbe(cmd *cobra.Command, format string, res health.ProbeResult) error {
	if format == "json" {
		return printJSON(cmd.OutOrStdout(), res)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n", res.Status)
	return err
}
