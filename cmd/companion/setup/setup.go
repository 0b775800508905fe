// Package setup carries the flags and bootstrapping shared by every
// companion subcommand.
package setup

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mindfulware/companion/pkg/config"
	"github.com/mindfulware/companion/pkg/logger"
)

// Common holds the flag values every subcommand accepts.
type Common struct {
	ConfigPath string
	RuntimeURL string
	Debug      bool
}

// Register adds the shared flags to cmd.
func (c *Common) Register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&c.ConfigPath, "config", "c", "", "Path to TOML config file")
	cmd.Flags().StringVar(&c.RuntimeURL, "runtime", "", "Model runtime URL (overrides config)")
	cmd.Flags().BoolVar(&c.Debug, "debug", false, "Enable debug logging")
}

// Load resolves the effective configuration and builds the logger.
func (c *Common) Load() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return config.Config{}, nil, err
	}

	if c.RuntimeURL != "" {
		cfg.RuntimeURL = c.RuntimeURL
	}

	return cfg, logger.NewLogger(c.Debug), nil
}
