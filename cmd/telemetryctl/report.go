package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/telemetryclient/client"
	"github.com/jonwraymond/telemetryclient/health"
)

// errUnhealthy is returned by report --fail-on-unhealthy.
var errUnhealthy = errors.New("service is unhealthy")

func newReportCommand(flags *globalFlags) *cobra.Command {
	var failOnUnhealthy bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Fetch health, readiness, liveness and metrics together",
		Long: `Fetch all four signals concurrently and print the combined report.

Signals that cannot be fetched are replaced by fallback values and listed
under errors. The command succeeds even when every fetch fails unless
--fail-on-unhealthy is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOutput(flags.output); err != nil {
				return err
			}
			return withClient(cmd, flags, func(ctx context.Context, c *client.Client) error {
				report := c.Report(ctx)

				var err error
				if flags.output == "json" {
					err = printJSON(cmd.OutOrStdout(), report)
				} else {
					err = printReportTable(cmd.OutOrStdout(), report)
				}
				if err != nil {
					return err
				}

				if failOnUnhealthy && health.OverallStatus(report) == health.StatusUnhealthy {
					return errUnhealthy
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&failOnUnhealthy, "fail-on-unhealthy", false, "Exit non-zero when the overall status is unhealthy")
	return cmd
}

func printReportTable(out io.Writer, r health.AggregatedReport) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "OVERALL\t%s\n", health.OverallStatus(r))
	fmt.Fprintf(w, "HEALTH\t%s\n", r.Health.Status)
	fmt.Fprintf(w, "READINESS\t%s\n", r.Readiness.Status)
	fmt.Fprintf(w, "LIVENESS\t%s\n", r.Liveness.Status)
	fmt.Fprintf(w, "UPTIME\t%g\n", r.Metrics.Uptime)
	fmt.Fprintf(w, "REQUESTS\t%g\n", r.Metrics.RequestCount)
	fmt.Fprintf(w, "ERROR RATE\t%g\n", r.Metrics.ErrorRate)

	if len(r.Health.Checks) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "CHECK\tSTATUS\tERROR")
		for _, name := range sortedKeys(r.Health.Checks) {
			check := r.Health.Checks[name]
			fmt.Fprintf(w, "%s\t%s\t%s\n", name, check.Status, check.Error)
		}
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "ENDPOINT\tERROR")
		for _, e := range r.Errors {
			fmt.Fprintf(w, "%s\t%s\n", e.Endpoint, e.Error)
		}
	}

	return w.Flush()
}
