package oauth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"tonearm/pkg/logging"
	"tonearm/pkg/messages"
)

// DefaultCaptureTimeout is how long Capture waits for the redirect.
const DefaultCaptureTimeout = 5 * time.Minute

// DefaultRedirectAddr is where the redirect listener binds by default.
const DefaultRedirectAddr = "127.0.0.1:1887"

// CaptureConfig describes one authorization-code capture.
type CaptureConfig struct {
	ClientID string
	// AuthURL is the provider's authorization endpoint.
	AuthURL string
	// RedirectAddr is the "host:port" the listener binds; the redirect URI
	// sent to the provider is "http://" + RedirectAddr.
	RedirectAddr string
	Scopes       []string
	// Timeout bounds the wait for the redirect. Zero means
	// DefaultCaptureTimeout; negative disables it.
	Timeout time.Duration
}

// RedirectURI is the redirect_uri registered with the provider.
func (c CaptureConfig) RedirectURI() string {
	return "http://" + c.RedirectAddr
}

// AuthorizationURL builds the URL the user approves access at.
func (c CaptureConfig) AuthorizationURL(state CSRFToken) (string, error) {
	u, err := url.Parse(c.AuthURL)
	if err != nil {
		return "", fmt.Errorf("invalid auth url %q: %w", c.AuthURL, err)
	}
	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = []string{"identify"}
	}

	q := u.Query()
	q.Set("client_id", c.ClientID)
	q.Set("redirect_uri", c.RedirectURI())
	q.Set("scope", strings.Join(scopes, " "))
	q.Set("response_type", "code")
	q.Set("state", state.Secret())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c CaptureConfig) timeout() time.Duration {
	switch {
	case c.Timeout == 0:
		return DefaultCaptureTimeout
	case c.Timeout < 0:
		return 0
	default:
		return c.Timeout
	}
}

type captureOptions struct {
	open   BrowserOpener
	onBind func(addr string)
}

// CaptureOption customises Capture.
type CaptureOption func(*captureOptions)

// WithBrowserOpener replaces the default browser launcher.
func WithBrowserOpener(open BrowserOpener) CaptureOption {
	return func(o *captureOptions) { o.open = open }
}

// WithBoundHook is called with the listener address once it is bound.
func WithBoundHook(fn func(addr string)) CaptureOption {
	return func(o *captureOptions) { o.onBind = fn }
}

// Capture runs the browser half of the authorization-code flow and returns
// the code the provider redirected back with.
//
// The listener is bound before the browser is opened, so a second capture
// on the same address fails with ErrAlreadyRunning without showing the
// user a consent page whose redirect would go nowhere.
func Capture(ctx context.Context, cfg CaptureConfig, opts ...CaptureOption) (messages.AuthorizationCode, error) {
	o := captureOptions{open: OpenBrowser}
	for _, opt := range opts {
		opt(&o)
	}

	state, err := GenerateCSRFToken()
	if err != nil {
		return "", err
	}
	authURL, err := cfg.AuthorizationURL(state)
	if err != nil {
		return "", err
	}

	server := NewCallbackServer(cfg.RedirectAddr, state)
	if err := server.Start(); err != nil {
		return "", err
	}
	if o.onBind != nil {
		o.onBind(server.Addr())
	}

	logging.Info("Capture", "Opening browser for authorization")
	if err := o.open(authURL); err != nil {
		server.Stop(err)
		_, _ = server.Wait(context.Background(), 0)
		return "", fmt.Errorf("%w: %v", ErrBrowserOpen, err)
	}

	code, err := server.Wait(ctx, cfg.timeout())
	if err != nil {
		logging.Debug("Capture", "Capture ended in state %s: %v", server.State(), err)
		return "", err
	}
	logging.Info("Capture", "Authorization code received")
	return code, nil
}
