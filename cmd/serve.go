// File: cmd/serve.go
package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiseed/internal/config"
	"github.com/xkilldash9x/aiseed/internal/observability"
	"github.com/xkilldash9x/aiseed/internal/seedapp"
)

// newServeCmd creates the 'serve' command, which runs the demo service.
func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Runs the AI Seed Application HTTP service.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runServe(ctx, cfg, observability.Named("serve"), addr, seedapp.NewMemoryStore())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr).")
	return cmd
}

func runServe(ctx context.Context, cfg config.Interface, logger *zap.Logger, addr string, store seedapp.Store) error {
	serverCfg := cfg.Server()
	if addr != "" {
		serverCfg.Addr = addr
	}
	logger.Info("Serving.", zap.String("addr", serverCfg.Addr))
	return seedapp.NewServer(serverCfg, store, logger).Start(ctx)
}
