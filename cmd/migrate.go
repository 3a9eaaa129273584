package cmd

import (
	"fmt"

	"wellcoach_backend/pkg/database"
	"wellcoach_backend/pkg/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger.InitLogger(cfg)
		defer logger.Log.Sync()

		db, err := database.InitDB(&cfg.Database)
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		fmt.Printf("Migrated %d tables\n", len(database.Models()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
