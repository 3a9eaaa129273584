package cmd

import (
	"wellcoach_backend/internal/app"

	"github.com/spf13/cobra"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.ForceMigrate = serveMigrate

		application, err := app.NewApp(cfg)
		if err != nil {
			return err
		}
		return application.Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "run database migrations before serving")
}
