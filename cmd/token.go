package cmd

import (
	"errors"
	"fmt"
	"time"

	"wellcoach_backend/internal/util"

	"github.com/spf13/cobra"
)

var (
	tokenName string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token [user-id]",
	Short: "Mint a signed JWT for local testing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.JWT.Secret == "" {
			return errors.New("jwt.secret is not configured")
		}

		token, err := util.GenerateJWT(args[0], tokenName, cfg.JWT.Issuer, cfg.JWT.Secret, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVarP(&tokenName, "name", "n", "", "display name used on certificates")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}
