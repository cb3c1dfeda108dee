package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"prism-scoring/internal/service"
)

func newTokenCmd() *cobra.Command {
	var (
		userID string
		role   string
		secret string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token (JWT_SECRET is used when --secret is empty)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			token, err := service.NewJWTService(secret, ttl).IssueAccessToken(userID, role)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "subject user id")
	cmd.Flags().StringVar(&role, "role", service.RoleUser, "user or admin")
	cmd.Flags().StringVar(&secret, "secret", "", "HS256 secret")
	cmd.Flags().DurationVar(&ttl, "ttl", 15*time.Minute, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
