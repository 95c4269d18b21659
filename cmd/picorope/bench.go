package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newBenchCmd(c *cli) *cobra.Command {
	var metrics bool

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time a chain of appends, a materialization and a release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.Bench(cmd.Context(), c.cfg.Bench.N)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "appends\t%d\n", res.N)
			fmt.Fprintf(w, "depth\t%d\n", res.Depth)
			fmt.Fprintf(w, "append\t%v\n", res.Append)
			fmt.Fprintf(w, "materialize\t%v\n", res.Materialize)
			fmt.Fprintf(w, "substr\t%v\n", res.Substr)
			fmt.Fprintf(w, "release\t%v\n", res.Release)
			fmt.Fprintf(w, "units copied\t%d\n", res.Stats.UnitsCopied)
			fmt.Fprintf(w, "leaked nodes\t%d\n", res.Leaked())
			if err := w.Flush(); err != nil {
				return err
			}

			if metrics {
				fmt.Fprintln(cmd.OutOrStdout())
				return c.app.Metrics().WriteMetrics(cmd.OutOrStdout())
			}
			return nil
		},
	}

	cmd.Flags().Int("n", 0, "number of appends (default from bench.n)")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "print metrics in Prometheus text format")
	return cmd
}
