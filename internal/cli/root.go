// Package cli implements the smartsearchctl command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/liliang-cn/smartsearch/internal/config"
	"github.com/liliang-cn/smartsearch/internal/logging"
)

const version = "0.1.0"

var (
	configPath string
	verbose    bool
)

// rootCmd is the root command
var rootCmd = &cobra.Command{
	Use:     "smartsearchctl",
	Short:   "SmartSearch command line client",
	Version: version,
	Long: `A command-line client for the SmartSearch product search backend.
Runs one-shot searches, checks backend health, or opens a conversational
search session in the terminal.`,
	Example: `  # One-shot search
  $ smartsearchctl search "red running shoes" --limit 5

  # Check the backend REST API
  $ smartsearchctl health

  # Conversational search session
  $ smartsearchctl chat`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() error {
	rootCmd.SetVersionTemplate(fmt.Sprintf("smartsearchctl version %s\n", version))
	return rootCmd.Execute()
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log backend traffic to stderr")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(chatCmd)
}

// loadConfig returns the config and a logger that stays quiet unless --verbose is set
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if !verbose {
		return cfg, zap.NewNop(), nil
	}
	logger, err := logging.New(cfg.Log.Level, true)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
