package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := Execute(ctx)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("rebalancer failed")
		os.Exit(1)
	}
}
