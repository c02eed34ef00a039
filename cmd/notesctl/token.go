package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"notekeeper/internal/identity"
)

func newTokenCmd(a *app) *cobra.Command {
	var (
		signKey  string
		issuer   string
		duration time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the --as principal",
		Long: `token signs a token the notekeeper server accepts for the given principal.
The sign key and issuer must match the server's AUTH_TOKEN_* settings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if signKey == "" {
				return errors.New("no sign key given, use --sign-key or AUTH_TOKEN_SIGN_KEY")
			}
			raw, err := identity.NewTokens(signKey, issuer, duration).Issue(identity.Principal(a.caller))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), raw)
			return err
		},
	}
	cmd.Flags().StringVar(&signKey, "sign-key", envOr("AUTH_TOKEN_SIGN_KEY", ""), "HMAC key used to sign tokens")
	cmd.Flags().StringVar(&issuer, "issuer", envOr("AUTH_TOKEN_ISSUER", "notekeeper"), "Token issuer")
	cmd.Flags().DurationVar(&duration, "duration", 24*time.Hour, "Token lifetime")
	return cmd
}
