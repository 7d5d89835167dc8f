package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zhank48/ultfpeb-sub004/internal/app"
	"github.com/zhank48/ultfpeb-sub004/internal/config"
	"github.com/zhank48/ultfpeb-sub004/internal/logging"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "frontdesk-admin",
		Short:        "Maintenance tools for the front desk visitor store",
		SilenceUsage: true,
	}
	cmd.AddCommand(newScanCmd(), newMigrateCmd(), newSeedDevCmd())
	return cmd
}

// openBackend loads config from the environment and opens the configured
// store. Logs go to stderr so stdout stays machine-readable.
func openBackend(ctx context.Context, cmd *cobra.Command) (config.Config, *app.Backend, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	logger := logging.New(cfg.Env, cfg.LogLevel)
	logger.SetOutput(cmd.ErrOrStderr())

	b, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, b, logger, nil
}
