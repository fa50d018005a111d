package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/sitekit/internal/config"
	logpkg "github.com/kailas-cloud/sitekit/internal/logger"
)

var envFlag string

var rootCmd = &cobra.Command{
	Use:   "sitekit",
	Short: "Chat completion proxy and catalog search for storefront pages",
	Long: `sitekit serves the chat completion proxy and the catalog search filter
used by storefront pages, and manages the catalog from the command line.

Configuration is read from config/<env>.yaml; env defaults to $ENV or "local".`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFlag, "env", "", "configuration environment (default $ENV or local)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration of the selected environment and builds its logger.
func loadConfig() (string, config.Config, *zap.Logger, error) {
	env := envFlag
	if env == "" {
		env = config.GetEnv()
	}

	cfg, err := config.Load(env)
	if err != nil {
		return "", config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return "", config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return env, cfg, logger, nil
}
