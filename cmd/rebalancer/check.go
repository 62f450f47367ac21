package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Alias1177/Rebalancer/models"
)

func checkCmd(rt *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run a single monitoring cycle and print the decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), rt)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.service.Check(cmd.Context())
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func printResult(w io.Writer, r models.CheckResult) {
	d := r.Outcome.Decision
	alloc := d.Details.Allocation

	fmt.Fprintf(w, "Pool:             %s\n", r.PoolID)
	fmt.Fprintf(w, "Current tick:     %d\n", r.Metrics.Tick)
	fmt.Fprintf(w, "Price:            %.8f\n", r.Metrics.Price)
	fmt.Fprintf(w, "Daily volatility: %.6f\n", r.Metrics.Volatility)
	if v := r.Metrics.Volume24h; v != nil {
		fmt.Fprintf(w, "24h volume:       %s token0 / %s token1\n", v.VolumeToken0, v.VolumeToken1)
	}
	fmt.Fprintf(w, "Narrow bucket:    %s (%.0f%%)\n", alloc.NarrowBucket, alloc.NarrowWeight*100)
	fmt.Fprintf(w, "Wide bucket:      %s (%.0f%%)\n", alloc.WideBucket, alloc.WideWeight*100)
	fmt.Fprintf(w, "Action:           %s\n", d.Action)
	fmt.Fprintf(w, "Rebalance needed: %t\n", d.RebalanceNeeded)

	n := r.Outcome.Notification
	switch {
	case n.Delivered:
		fmt.Fprintln(w, "Notification:     delivered")
	case n.Err != nil:
		fmt.Fprintf(w, "Notification:     failed (%v)\n", n.Err)
	}
}
