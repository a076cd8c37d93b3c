package cmd

import (
	"fmt"
	"time"

	"fuelsurcharge/internal/middleware"

	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenRole    string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed API token",
	Long: `Issue an HS256 token signed with JWT_SECRET.

Admin tokens may trigger updates and change settings; viewer tokens are only
accepted where authentication is required but no role is checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, closer, err := loadConfig()
		if err != nil {
			return err
		}
		defer closer.Close()

		if tokenRole != middleware.RoleAdmin && tokenRole != middleware.RoleViewer {
			return fmt.Errorf("role must be %q or %q", middleware.RoleAdmin, middleware.RoleViewer)
		}
		ttl := tokenTTL
		if ttl <= 0 {
			ttl = time.Duration(cfg.JWTExpirationHours) * time.Hour
		}
		tok, err := middleware.IssueToken(cfg.JWTSecret, tokenSubject, tokenRole, ttl)
		if err != nil {
			return err
		}
		cmd.Println(tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "operator", "token subject")
	tokenCmd.Flags().StringVar(&tokenRole, "role", middleware.RoleAdmin, "admin or viewer")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default JWT_EXPIRATION_HOURS)")
}
