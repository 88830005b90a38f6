// Package cmd provides the branchobs command line.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/adalundhe/branchobs/core/config"
	"github.com/adalundhe/branchobs/core/storage"
)

var (
	configPath string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "branchobs",
	Short: "Branch-and-bound observation extraction",
	Long: `branchobs computes machine-learning observations from recorded
branch-and-bound solver states and collects them into training datasets.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a config file layered over the user and project config")
}

// loadConfig resolves the configuration and logger shared by all commands.
func loadConfig(cmd *cobra.Command, _ []string) error {
	root, err := os.Getwd()
	if err != nil {
		root = "."
	}
	m := config.NewManager(storage.ResolveDirs(), root)
	if err := m.Load(configPath); err != nil {
		return err
	}
	cfg = m.Get()
	logger = cfg.Log.NewLogger(cmd.ErrOrStderr())
	return nil
}

func Execute() error {
	return rootCmd.Execute()
}
