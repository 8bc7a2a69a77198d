package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/telemetryclient/exposition"
)

func newParseCommand(flags *globalFlags) *cobra.Command {
	var project bool

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse Prometheus exposition text offline",
		Long: `Parse Prometheus text exposition from a file, or stdin when no file or
"-" is given, and print the recovered samples.

With --project the samples are mapped onto the metrics snapshot using the
configured projection.

Examples:
  curl -s http://svc/metrics | telemetryctl parse -o json
  telemetryctl parse metrics.txt --project`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(flags.output); err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			table, err := exposition.ParseReader(in)
			if err != nil {
				return fmt.Errorf("read exposition: %w", err)
			}

			if project {
				cfg, err := loadConfig(cmd, flags)
				if err != nil {
					return err
				}
				p, err := cfg.Projection()
				if err != nil {
					return err
				}
				m := p.Apply(table)
				if flags.output == "json" {
					return printJSON(cmd.OutOrStdout(), m)
				}
				return printMetricsTable(cmd.OutOrStdout(), m)
			}

			if flags.output == "json" {
				return printJSON(cmd.OutOrStdout(), table)
			}
			return printTable(cmd.OutOrStdout(), table)
		},
	}

	cmd.Flags().BoolVar(&project, "project", false, "Project samples onto the metrics snapshot")
	return cmd
}

func printTable(out io.Writer, t exposition.Table) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tVALUE\tLABELS")
	for _, name := range t.Names() {
		s := t[name]
		fmt.Fprintf(w, "%s\t%s\t%g\t%s\n", s.Name, s.Type, s.Value, formatLabels(s.Labels))
	}
	return w.Flush()
}

func formatLabels(l exposition.Labels) string {
	if l.Len() == 0 {
		return "-"
	}
	pairs := make([]string, 0, len(l))
	for _, lbl := range l {
		pairs = append(pairs, lbl.Name+"="+lbl.Value)
	}
	return strings.Join(pairs, ",")
}
