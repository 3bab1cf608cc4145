package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"tonearm/internal/client"
	"tonearm/pkg/auth"
	"tonearm/pkg/messages"
)

// statusSyncTimeout bounds the wait for the first state after login.
const statusSyncTimeout = 3 * time.Second

func newStatusCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the host accepts the login and what it is playing",
		Long: `Connects to the host and asks whether the session is authenticated.
With TONEARM_CLIENT_REFRESH_TOKEN set it logs in first and waits briefly
for the first player sync.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "table" && output != "json" {
				return fmt.Errorf("unknown output format %q (want table or json)", output)
			}
			if err := cfg.ValidateRemote(); err != nil {
				return err
			}
			resp, err := queryStatus(cmd.Context())
			if err != nil {
				return err
			}
			if output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			renderStatus(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table or json")
	return cmd
}

func queryStatus(ctx context.Context) (auth.StatusResponse, error) {
	resp := auth.StatusResponse{Host: cfg.Client.HostURL}

	synced := make(chan *messages.PlayerState, 1)
	h := client.Handler{OnState: func(s *messages.PlayerState) {
		select {
		case synced <- s:
		default:
		}
	}}

	var (
		r   *remote
		err error
	)
	if cfg.Client.RefreshToken == "" {
		r, err = connect(ctx, cfg.Client.HostURL, h)
	} else {
		r, err = dialWithToken(ctx, cfg.Client, h)
	}
	if err != nil {
		return resp, err
	}
	defer r.close()

	if resp.Authenticated, err = r.session.AuthStatus(ctx); err != nil {
		return resp, err
	}
	if !resp.Authenticated {
		return resp, nil
	}
	resp.User = &r.user

	timer := time.NewTimer(statusSyncTimeout)
	defer timer.Stop()
	select {
	case state := <-synced:
		resp.Player = auth.NewPlayerStatus(state)
	case <-timer.C:
	case <-ctx.Done():
		return resp, ctx.Err()
	}
	resp.Voice = auth.NewVoiceStatus(r.session.Voice())
	return resp, nil
}

func renderStatus(w io.Writer, resp auth.StatusResponse) {
	t := newTable(w)
	t.AppendHeader(table.Row{text.FgHiCyan.Sprint("FIELD"), text.FgHiCyan.Sprint("VALUE")})
	t.AppendRow(table.Row{"Host", resp.Host})

	if !resp.Authenticated {
		t.AppendRow(table.Row{"Authenticated", text.FgRed.Sprint("no")})
		t.Render()
		return
	}
	t.AppendRow(table.Row{"Authenticated", text.FgGreen.Sprint("yes")})
	if resp.User != nil {
		t.AppendRow(table.Row{"User", fmt.Sprintf("%s (%s)", resp.User.Username, resp.User.ID)})
	}
	if resp.Voice != nil {
		t.AppendRow(table.Row{"Voice", resp.Voice.ChannelName})
	} else {
		t.AppendRow(table.Row{"Voice", text.FgHiBlack.Sprint("not connected")})
	}

	p := resp.Player
	if p == nil {
		t.AppendRow(table.Row{"Player", text.FgHiBlack.Sprint("none")})
		t.Render()
		return
	}
	state := "playing"
	if p.Paused {
		state = "paused"
	}
	t.AppendRow(table.Row{"Player", fmt.Sprintf("%s, %s, mode %s", p.Bot, state, p.Mode)})
	if p.Current != "" {
		t.AppendRow(table.Row{"Current", fmt.Sprintf("%s  %s", p.Current, formatTrackTime(p.Position, p.Length))})
	}
	t.AppendRow(table.Row{"Queue", fmt.Sprintf("%d queued, %d played", p.Queued, p.Played)})
	t.Render()
}
