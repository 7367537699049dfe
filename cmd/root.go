// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiseed/internal/config"
	"github.com/xkilldash9x/aiseed/internal/observability"
)

const defaultConfigFile = "seed_instructions.yaml"

type contextKey string

const configKey contextKey = "config"

var cfgFile string

// newRootCmd builds the command tree. Each call returns an independent tree.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "aiseed",
		Short:         "aiseed evolves a repository through a crew of AI agents.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(cmd, v); err != nil {
				observability.InitializeLogger(config.NewDefaultConfig().Logger())
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.NewDefaultConfig().Logger())
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Info("Starting aiseed.", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile, "config file")
	cmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	cmd.AddCommand(newEvolveCmd())
	cmd.AddCommand(newTriageCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

// Execute runs the CLI. Errors are logged here; the caller only maps them to an exit code.
func Execute(ctx context.Context) error {
	err := newRootCmd().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, errEvolutionFailed) {
			// Already reported by the evolve command.
			return err
		}
		observability.GetLogger().Error("Command execution failed.", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	observability.Sync()
	return err
}

// initializeConfig reads the config file and binds AISEED_* environment
// variables. The default file may be absent; an explicitly named one may not.
func initializeConfig(cmd *cobra.Command, v *viper.Viper) error {
	path, err := config.ResolveConfigPath(cfgFile)
	if err != nil {
		return fmt.Errorf("invalid config path %q: %w", cfgFile, err)
	}
	v.SetConfigFile(path)

	v.SetEnvPrefix("AISEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		explicit := cmd.Flags().Changed("config")
		var notFound viper.ConfigFileNotFoundError
		if !explicit && (errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

func getConfigFromContext(ctx context.Context) (config.Interface, error) {
	cfg, ok := ctx.Value(configKey).(config.Interface)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not found in context")
	}
	return cfg, nil
}
