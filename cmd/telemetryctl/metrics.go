package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/telemetryclient/client"
	"github.com/jonwraymond/telemetryclient/metrics"
)

func newMetricsCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Fetch the metrics snapshot",
		Long: `Fetch metrics as JSON, falling back to the Prometheus text format.

Examples:
  telemetryctl metrics
  telemetryctl metrics -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOutput(flags.output); err != nil {
				return err
			}
			return withClient(cmd, flags, func(ctx context.Context, c *client.Client) error {
				m, err := c.Metrics(ctx)
				if err != nil {
					return err
				}
				if flags.output == "json" {
					return printJSON(cmd.OutOrStdout(), m)
				}
				return printMetricsTable(cmd.OutOrStdout(), m)
			})
		},
	}
}

func printMetricsTable(out io.Writer, m metrics.SystemMetrics) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "FIELD\tVALUE")
	fmt.Fprintf(w, "uptime\t%g\n", m.Uptime)
	fmt.Fprintf(w, "requestCount\t%g\n", m.RequestCount)
	fmt.Fprintf(w, "errorRate\t%g\n", m.ErrorRate)
	fmt.Fprintf(w, "averageResponseTime\t%g\n", m.AverageResponseTime)
	fmt.Fprintf(w, "activeConnections\t%g\n", m.ActiveConnections)
	if m.MemoryUsage != nil {
		fmt.Fprintf(w, "memoryUsage\t%g\n", *m.MemoryUsage)
	} else {
		fmt.Fprintln(w, "memoryUsage\t-")
	}

	return w.Flush()
}
