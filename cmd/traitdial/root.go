package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yungbote/traitdial/internal/app"
	"github.com/yungbote/traitdial/internal/config"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "traitdial",
		Short:         "Score trait intensities for a scenario, optionally grounded in a reference PDF",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (overrides TRAITDIAL_CONFIG_PATH)")

	load := func(ctx context.Context) (*app.App, error) {
		getenv := envWithConfigPath(configPath)
		cfg, err := config.LoadWith(getenv)
		if err != nil {
			return nil, err
		}
		return app.New(ctx, cfg)
	}

	root.AddCommand(newServeCmd(load))
	root.AddCommand(newRecommendCmd(load))
	root.AddCommand(newBatchCmd(load))
	return root
}

type appLoader func(ctx context.Context) (*app.App, error)
