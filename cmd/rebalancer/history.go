package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func historyCmd(rt *appState) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent journaled decisions of the pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			if !rt.cfg.DatabaseEnabled() {
				return errors.New("DB_HOST is not set, the decision journal is disabled")
			}
			if rt.cfg.PoolID == "" {
				return errors.New("POOL_ID is required")
			}

			db, err := openDatabase(cmd.Context(), rt)
			if err != nil {
				return err
			}
			defer db.Close()

			records, err := db.RecentDecisions(cmd.Context(), rt.cfg.PoolID, limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CHECKED AT\tTICK\tACTION\tNARROW\tWIDE\tVOLATILITY\tNOTIFIED")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%.6f\t%t\n",
					r.CheckedAt.UTC().Format(time.RFC3339), r.CurrentTick, r.Action,
					r.NarrowBucket, r.WideBucket, r.Volatility, r.Notified)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of decisions to show")
	return cmd
}
