package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/traitdial/internal/platform/shutdown"
)

func newServeCmd(load appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := shutdown.NotifyContext(cmd.Context())
			defer stop()

			a, err := load(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			defer a.Close()

			if err := a.Run(ctx); err != nil {
				return fmt.Errorf("server exited: %w", err)
			}
			return nil
		},
	}
}
