package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"tonearm/pkg/messages"
	"tonearm/pkg/strings"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

// renderUser prints who logged in. The refresh token is printed once so
// the user can keep it; nothing stores it on disk.
func renderUser(w io.Writer, user messages.User, refresh messages.RefreshToken) {
	t := newTable(w)
	t.AppendHeader(table.Row{text.FgHiCyan.Sprint("FIELD"), text.FgHiCyan.Sprint("VALUE")})
	t.AppendRow(table.Row{"Username", user.Username})
	t.AppendRow(table.Row{"ID", user.ID})
	if user.Avatar != "" {
		t.AppendRow(table.Row{"Avatar", user.Avatar})
	}
	t.Render()

	if refresh != "" {
		fmt.Fprintf(w, "\nTo reconnect without the browser:\n  export TONEARM_CLIENT_REFRESH_TOKEN=%s\n", refresh.Secret())
	}
}

// renderState prints the mirrored player. A nil state means the host has
// no player.
func renderState(w io.Writer, state *messages.PlayerState, voice *messages.VoiceState) {
	if voice != nil {
		fmt.Fprintf(w, "Voice: %s\n", text.FgHiGreen.Sprint(voice.ChannelName))
	} else {
		fmt.Fprintf(w, "Voice: %s\n", text.FgHiBlack.Sprint("not connected"))
	}
	if state == nil {
		fmt.Fprintln(w, text.FgHiBlack.Sprint("No player"))
		return
	}

	status := "Playing"
	if state.Paused {
		status = "Paused"
	}
	fmt.Fprintf(w, "%s  %s  mode=%s\n", text.Bold.Sprint(state.Bot.Name), status, state.Mode)

	t := newTable(w)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("#"),
		text.FgHiCyan.Sprint("TITLE"),
		text.FgHiCyan.Sprint("POSITION"),
		text.FgHiCyan.Sprint("URI"),
	})
	for i, track := range state.History {
		t.AppendRow(table.Row{-(len(state.History) - i), text.FgHiBlack.Sprint(title(track)), formatTrackTime(track.Len, track.Len), uri(track)})
	}
	if state.Current != nil {
		t.AppendRow(table.Row{text.FgHiGreen.Sprint("▶"), text.Bold.Sprint(title(*state.Current)), formatTrackTime(state.Current.Pos, state.Current.Len), uri(*state.Current)})
	}
	for i, track := range state.Queue {
		t.AppendRow(table.Row{i + 1, title(track), formatTrackTime(0, track.Len), uri(track)})
	}
	if len(state.History)+len(state.Queue) == 0 && state.Current == nil {
		t.AppendRow(table.Row{"", text.FgHiBlack.Sprint("queue is empty"), "", ""})
	}
	t.Render()
}

func title(t messages.Track) string { return strings.Truncate(t.Title, strings.DefaultTitleMaxLen) }

func uri(t messages.Track) string { return strings.Truncate(t.URI, strings.DefaultURIMaxLen) }

func formatTrackTime(pos, length time.Duration) string {
	return formatClock(pos) + " / " + formatClock(length)
}

func formatClock(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
