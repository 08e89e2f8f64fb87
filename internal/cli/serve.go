package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"life-os/internal/app"
	"life-os/internal/config"
	"life-os/internal/logging"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server, scheduler and Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			if err := application.Start(); err != nil {
				_ = application.Stop()
				return err
			}

			waitForShutdown(cmd.Context())
			logger.Info("shutting down", zap.String("reason", "signal"))
			return application.Stop()
		},
	}
}

func waitForShutdown(parent context.Context) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
}
