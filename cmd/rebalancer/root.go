package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Alias1177/Rebalancer/internal/config"
	"github.com/Alias1177/Rebalancer/internal/logger"
)

// appState is filled by the root command before any subcommand runs
type appState struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// Execute runs the CLI
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rt := &appState{}

	root := &cobra.Command{
		Use:           "rebalancer",
		Short:         "Concentrated-liquidity rebalance monitor",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			rt.cfg = cfg
			rt.logger = logger.New(cfg.LogLevel, cfg.LogPretty)
			return nil
		},
	}

	root.AddCommand(
		checkCmd(rt),
		watchCmd(rt),
		bucketsCmd(rt),
		historyCmd(rt),
	)
	return root
}
