package cmd

import (
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"tonearm/internal/client"
	"tonearm/pkg/messages"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Mirror the host's player and print it on every change",
		Long: `Connects with the refresh token from TONEARM_CLIENT_REFRESH_TOKEN and
prints the player state each time the host syncs it. Stops on Ctrl-C or
when the host ends the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ValidateRemote(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r, err := dialWithToken(ctx, cfg.Client, newWatchHandler(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			defer r.close()

			return r.wait()
		},
	}
}

// newWatchHandler redraws the player whenever the state or the voice
// channel changes.
func newWatchHandler(w io.Writer) client.Handler {
	var (
		mu    sync.Mutex
		state *messages.PlayerState
		voice *messages.VoiceState
	)
	redraw := func() {
		renderState(w, state, voice)
		_, _ = io.WriteString(w, "\n")
	}
	return client.Handler{
		OnState: func(s *messages.PlayerState) {
			mu.Lock()
			defer mu.Unlock()
			state = s
			redraw()
		},
		OnVoice: func(v *messages.VoiceState) {
			mu.Lock()
			defer mu.Unlock()
			voice = v
			redraw()
		},
	}
}
