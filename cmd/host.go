package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tonearm/internal/config"
	"tonearm/internal/host"
	"tonearm/internal/metrics"
	"tonearm/internal/oauth"
	"tonearm/internal/player"
	"tonearm/pkg/logging"
	"tonearm/pkg/messages"
)

type hostFlags struct {
	voiceChannelID   uint64
	voiceChannelName string
}

func newHostCmd() *cobra.Command {
	var flags hostFlags

	cmd := &cobra.Command{
		Use:   "host",
		Short: "Run the host that owns the player and serves the remote",
		Long: `Runs the host: it exchanges client logins with the identity provider,
owns the player queue and keeps the paired client's mirror in sync.

Health is served on /healthz and Prometheus metrics on /metrics next to
the WebSocket endpoint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ValidateHost(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runHost(ctx, cfg, flags)
		},
	}

	cmd.Flags().Uint64Var(&flags.voiceChannelID, "voice-channel-id", 0, "voice channel the user is in; enables join")
	cmd.Flags().StringVar(&flags.voiceChannelName, "voice-channel-name", "", "display name of --voice-channel-id")
	return cmd
}

func providerConfig(c config.ProviderConfig) oauth.ProviderConfig {
	return oauth.ProviderConfig{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		AuthURL:      c.AuthURL,
		TokenURL:     c.TokenURL,
		ProfileURL:   c.ProfileURL,
		RedirectURL:  c.RedirectURL,
		Scopes:       c.Scopes,
	}.DiscordDefaults()
}

func runHost(ctx context.Context, c config.Config, flags hostFlags) error {
	auth, err := oauth.NewAuthenticator(providerConfig(c.Provider), oauth.WithLogger(logging.For("OAuth")))
	if err != nil {
		return err
	}

	store := player.NewStore()
	if flags.voiceChannelID != 0 {
		store.SetVoice(&messages.VoiceState{ChannelID: flags.voiceChannelID, ChannelName: flags.voiceChannelName})
	}
	queue := player.NewQueue(store, messages.BotInfo{Name: c.Host.BotName, Avatar: c.Host.BotAvatar})

	server := host.New(host.Config{Listen: c.Host.Listen, WSPath: c.Host.WSPath}, auth, store, queue, metrics.New())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		queue.Run(ctx, c.Host.TickInterval)
		return nil
	})
	g.Go(func() error {
		return server.ListenAndServe(ctx)
	})

	err = g.Wait()
	logging.Info("Host", "Stopped")
	return err
}
