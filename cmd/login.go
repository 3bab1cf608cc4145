package cmd

import (
	"github.com/spf13/cobra"

	"tonearm/internal/oauth"
	"tonearm/pkg/messages"
)

// defaultAuthURL is used when client.auth_url is not configured.
const defaultAuthURL = oauth.DiscordAuthURL

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in through the browser and pair with the host",
		Long: `Opens the provider's consent page in the browser, captures the
authorization code on the local redirect address and hands it to the host.

On success the user and a refresh token are printed. Export the token as
TONEARM_CLIENT_REFRESH_TOKEN so watch and control can reconnect without
the browser.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ValidateClient(); err != nil {
				return err
			}
			ctx := cmd.Context()

			code, err := captureCode(ctx, cfg.Client, !quiet)
			if err != nil {
				return err
			}

			r, err := dial(ctx, cfg.Client.HostURL, messages.CodeAuth(code), noHandler)
			if err != nil {
				return err
			}
			defer r.close()

			renderUser(cmd.OutOrStdout(), r.user, r.refresh)
			return nil
		},
	}
}
