package cmd

import (
	"fmt"
	"os"

	"wellcoach_backend/internal/config"

	"github.com/spf13/cobra"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "wellcoach",
	Short: "Wellness training progress service",
	Long: `wellcoach serves the training progress API: module catalog, progress tracking,
scored exercise submissions, certificates, bookmarks and notes.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "c", "configs", "directory containing config.yaml")
}
