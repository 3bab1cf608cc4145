package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"tonearm/pkg/messages"
)

func newControlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "control",
		Short: "Send a playback control to the host",
		Long: `Connects with the refresh token from TONEARM_CLIENT_REFRESH_TOKEN,
applies one control and prints the host's result.`,
	}

	add := func(use, short string, args cobra.PositionalArgs) {
		cmd.AddCommand(&cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE:  runControl,
		})
	}
	add("pause", "Pause the current track", cobra.NoArgs)
	add("resume", "Resume the current track", cobra.NoArgs)
	add("skip [count]", "Skip forward count tracks (default 1)", cobra.MaximumNArgs(1))
	add("back [count]", "Go back count tracks (default 1)", cobra.MaximumNArgs(1))
	add("seek <position>", "Seek the current track, e.g. 1m30s", cobra.ExactArgs(1))
	add("mode <Normal|LoopAll|LoopOne>", "Set the play mode", cobra.ExactArgs(1))
	add("enqueue <url>", "Add a track to the queue", cobra.ExactArgs(1))
	add("join", "Join the user's voice channel", cobra.NoArgs)
	add("leave", "Leave voice and clear the player", cobra.NoArgs)
	return cmd
}

// parseControl builds the control named by a control subcommand.
func parseControl(name string, args []string) (messages.PlayerControl, error) {
	count := func() (int, error) {
		if len(args) == 0 {
			return 1, nil
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return 0, fmt.Errorf("count must be a positive integer, got %q", args[0])
		}
		return n, nil
	}

	switch name {
	case "pause":
		return messages.PlayerControl{Kind: messages.ControlPause}, nil
	case "resume":
		return messages.PlayerControl{Kind: messages.ControlResume}, nil
	case "skip", "back":
		n, err := count()
		if err != nil {
			return messages.PlayerControl{}, err
		}
		kind := messages.ControlSkip
		if name == "back" {
			kind = messages.ControlBackSkip
		}
		return messages.PlayerControl{Kind: kind, Count: n}, nil
	case "seek":
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return messages.PlayerControl{}, fmt.Errorf("invalid position: %w", err)
		}
		if d < 0 {
			return messages.PlayerControl{}, fmt.Errorf("position must not be negative, got %s", d)
		}
		return messages.PlayerControl{Kind: messages.ControlSetTime, Time: d}, nil
	case "mode":
		mode, err := messages.ParsePlayMode(args[0])
		if err != nil {
			return messages.PlayerControl{}, err
		}
		return messages.PlayerControl{Kind: messages.ControlPlayMode, Mode: mode}, nil
	case "enqueue":
		return messages.Enqueue(args[0])
	case "join":
		return messages.PlayerControl{Kind: messages.ControlJoin}, nil
	case "leave":
		return messages.PlayerControl{Kind: messages.ControlLeave}, nil
	default:
		return messages.PlayerControl{}, fmt.Errorf("unknown control %q", name)
	}
}

func runControl(cmd *cobra.Command, args []string) error {
	ctl, err := parseControl(cmd.Name(), args)
	if err != nil {
		return err
	}
	if err := cfg.ValidateRemote(); err != nil {
		return err
	}
	ctx := cmd.Context()

	r, err := dialWithToken(ctx, cfg.Client, noHandler)
	if err != nil {
		return err
	}
	defer r.close()

	if _, err := r.session.Control(ctx, ctl); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", text.FgGreen.Sprint("✓"), ctl)
	return nil
}
