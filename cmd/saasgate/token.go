package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/saasgate/pkg/identity"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		userID string
		orgID  string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errJWTSecretRequired
			}

			id := identity.Identity{UserID: userID}
			if orgID != "" {
				if id.OrgID, err = uuid.Parse(orgID); err != nil {
					return fmt.Errorf("invalid --org: %w", err)
				}
			}

			tokens, err := identity.NewTokens([]byte(cfg.Auth.JWTSecret),
				identity.WithIssuer(cfg.Auth.Issuer),
				identity.WithTTL(cfg.Auth.TokenTTL),
			)
			if err != nil {
				return err
			}
			raw, err := tokens.Issue(id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), raw)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (token subject)")
	cmd.Flags().StringVar(&orgID, "org", "", "organization uuid")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
