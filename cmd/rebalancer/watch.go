package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alias1177/Rebalancer/internal/scheduler"
	"github.com/Alias1177/Rebalancer/internal/telemetry"
)

func watchCmd(rt *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll the pool on a schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, rt)
			if err != nil {
				return err
			}
			defer a.Close()

			schedule, err := rt.cfg.Schedule()
			if err != nil {
				return err
			}

			sched := scheduler.New(ctx, rt.logger)
			if err := sched.AddJob(schedule, a.service); err != nil {
				return err
			}

			if addr := rt.cfg.MetricsAddr; addr != "" {
				srv, err := telemetry.Serve(addr, a.registry, rt.logger)
				if err != nil {
					return err
				}
				rt.logger.Info().Str("addr", srv.Addr).Msg("Serving metrics")
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			if err := sched.RunNow(a.service); err != nil {
				rt.logger.Error().Err(err).Msg("Initial check failed")
			}

			sched.Start()
			<-ctx.Done()
			rt.logger.Info().Msg("Shutdown signal received, stopping...")
			sched.Stop()
			return nil
		},
	}
}
