package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"

	agentoauth "tonearm/internal/agent/oauth"
	"tonearm/internal/client"
	"tonearm/internal/config"
	"tonearm/pkg/logging"
	"tonearm/pkg/messages"
)

// remote is an authenticated session whose Run loop is in the background.
type remote struct {
	session *client.Session
	user    messages.User
	refresh messages.RefreshToken

	cancel context.CancelFunc
	runErr chan error
}

// captureCode runs the browser login with a spinner on stderr.
func captureCode(ctx context.Context, c config.ClientConfig, showSpinner bool) (messages.AuthorizationCode, error) {
	capture := agentoauth.CaptureConfig{
		ClientID:     c.ClientID,
		AuthURL:      c.AuthURL,
		RedirectAddr: c.RedirectAddr,
		Scopes:       c.Scopes,
		Timeout:      c.CaptureTimeout,
	}
	if capture.AuthURL == "" {
		capture.AuthURL = defaultAuthURL
	}

	var opts []agentoauth.CaptureOption
	if showSpinner {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " Waiting for the browser login..."
		s.Writer = rootCmd.ErrOrStderr()
		opts = append(opts, agentoauth.WithBoundHook(func(string) { s.Start() }))
		defer s.Stop()
	}

	return agentoauth.Capture(ctx, capture, opts...)
}

// connect dials the host and starts the read loop. h receives the mirror.
func connect(ctx context.Context, hostURL string, h client.Handler) (*remote, error) {
	session, err := client.Connect(ctx, hostURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to host %s: %w", hostURL, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &remote{session: session, cancel: cancel, runErr: make(chan error, 1)}
	go func() { r.runErr <- session.Run(runCtx, h) }()
	return r, nil
}

// dial connects and authenticates with auth.
func dial(ctx context.Context, hostURL string, auth messages.Auth, h client.Handler) (*remote, error) {
	r, err := connect(ctx, hostURL, h)
	if err != nil {
		return nil, err
	}
	user, refresh, err := r.session.Authenticate(ctx, auth)
	if err != nil {
		r.close()
		return nil, err
	}
	r.user, r.refresh = user, refresh
	logging.Debug("Remote", "Authenticated as %s via %s", user.Username, auth.Kind)
	return r, nil
}

// dialWithToken authenticates with the configured refresh token and tells
// the user when the host rotated it.
func dialWithToken(ctx context.Context, c config.ClientConfig, h client.Handler) (*remote, error) {
	if c.RefreshToken == "" {
		return nil, errAuthRequired
	}
	r, err := dial(ctx, c.HostURL, messages.TokenAuth(messages.RefreshToken(c.RefreshToken)), h)
	if err != nil {
		return nil, err
	}
	if r.refresh.Secret() != c.RefreshToken {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "%s the host issued a new refresh token:\n  export TONEARM_CLIENT_REFRESH_TOKEN=%s\n",
			text.FgYellow.Sprint("note:"), r.refresh.Secret())
	}
	return r, nil
}

// wait blocks until the read loop ends.
func (r *remote) wait() error {
	err := <-r.runErr
	r.runErr <- err
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// close ends the session politely and waits for the read loop.
func (r *remote) close() {
	_ = r.session.End()
	r.cancel()
	_ = r.wait()
	_ = r.session.Close()
}

// noHandler ignores mirror changes.
var noHandler = client.Handler{}
