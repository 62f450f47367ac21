package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alias1177/Rebalancer/internal/allocation"
)

func bucketsCmd(rt *appState) *cobra.Command {
	var (
		tick       int
		volatility float64
	)
	cmd := &cobra.Command{
		Use:   "buckets",
		Short: "Compute the narrow and wide buckets for a tick without fetching anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			alloc, err := allocation.CalculateBuckets(tick, volatility, rt.cfg.Allocation)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Narrow bucket: %s weight %.2f\n", alloc.NarrowBucket, alloc.NarrowWeight)
			fmt.Fprintf(w, "Wide bucket:   %s weight %.2f\n", alloc.WideBucket, alloc.WideWeight)
			return nil
		},
	}
	cmd.Flags().IntVar(&tick, "tick", 0, "current pool tick")
	cmd.Flags().Float64Var(&volatility, "volatility", 0, "daily volatility of the pool")
	_ = cmd.MarkFlagRequired("tick")
	return cmd
}
