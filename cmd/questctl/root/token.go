package root

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskventure/backend/internal/middleware"
)

func newTokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the API when auth is enabled",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.TokenSecret == "" {
				return errors.New("TASKVENTURE_AUTH_SECRET is not set")
			}
			if ttl <= 0 {
				ttl = time.Duration(cfg.Auth.TokenTTLHours) * time.Hour
			}

			tok, err := middleware.IssueToken([]byte(cfg.Auth.TokenSecret), subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "local", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default from token_ttl_hours)")
	return cmd
}
