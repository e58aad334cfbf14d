package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root, a := newRootCmd()
	if err := execute(ctx, root, a); err != nil {
		// Basic logger for errors raised before or outside the configured one
		log := zerolog.New(os.Stderr).With().Timestamp().Logger()
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}
