package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rugpullSim/internal/api"
)

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	server := api.NewServer(a.session, a.metrics.Handler(), a.cfg.Window, a.logger)

	a.logger.Info("serve start",
		zap.String("listen", a.cfg.Listen),
		zap.String("store", a.cfg.Store),
		zap.Int("pools", len(a.session.Pools())),
		zap.Duration("window", a.cfg.Window),
	)
	return server.Run(ctx, a.cfg.Listen)
}
