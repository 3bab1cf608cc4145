package oauth

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tonearm/pkg/messages"
)

func testCaptureConfig() CaptureConfig {
	return CaptureConfig{
		ClientID:     "client-id",
		AuthURL:      "https://discord.com/api/oauth2/authorize",
		RedirectAddr: "127.0.0.1:0",
		Timeout:      5 * time.Second,
	}
}

func TestCaptureConfig_AuthorizationURL(t *testing.T) {
	cfg := testCaptureConfig()
	cfg.RedirectAddr = "127.0.0.1:1887"

	raw, err := cfg.AuthorizationURL(NewCSRFToken("state-1"))
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "discord.com", u.Host)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "http://127.0.0.1:1887", q.Get("redirect_uri"))
	assert.Equal(t, "identify", q.Get("scope"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "state-1", q.Get("state"))
}

// browserFollowing simulates a browser that completes the redirect with
// the given code, rewriting the state with tamper.
func browserFollowing(t *testing.T, bound *string, code string, tamper func(string) string) BrowserOpener {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		state := tamper(u.Query().Get("state"))
		go sendRequestLine(t, *bound, "GET /?code="+url.QueryEscape(code)+"&state="+url.QueryEscape(state)+" HTTP/1.1\r\n\r\n")
		return nil
	}
}

func TestCapture(t *testing.T) {
	t.Run("returns the code when state round-trips", func(t *testing.T) {
		var bound string
		code, err := Capture(context.Background(), testCaptureConfig(),
			WithBoundHook(func(addr string) { bound = addr }),
			WithBrowserOpener(browserFollowing(t, &bound, "ABC", func(s string) string { return s })),
		)
		require.NoError(t, err)
		assert.Equal(t, messages.AuthorizationCode("ABC"), code)
	})

	t.Run("never trusts a code with the wrong state", func(t *testing.T) {
		var bound string
		code, err := Capture(context.Background(), testCaptureConfig(),
			WithBoundHook(func(addr string) { bound = addr }),
			WithBrowserOpener(browserFollowing(t, &bound, "ABC", func(s string) string { return s + "x" })),
		)
		assert.ErrorIs(t, err, ErrMismatchCSRF)
		assert.Empty(t, code)
	})

	t.Run("browser failure releases the listener", func(t *testing.T) {
		var bound string
		_, err := Capture(context.Background(), testCaptureConfig(),
			WithBoundHook(func(addr string) { bound = addr }),
			WithBrowserOpener(func(string) error { return errors.New("no display") }),
		)
		assert.ErrorIs(t, err, ErrBrowserOpen)

		s := NewCallbackServer(bound, NewCSRFToken("x"))
		require.NoError(t, s.Start())
		s.Stop(context.Canceled)
	})

	t.Run("times out", func(t *testing.T) {
		cfg := testCaptureConfig()
		cfg.Timeout = 30 * time.Millisecond
		_, err := Capture(context.Background(), cfg, WithBrowserOpener(func(string) error { return nil }))
		assert.ErrorIs(t, err, ErrCaptureTimeout)
	})

	t.Run("port already taken", func(t *testing.T) {
		holder := startServer(t, NewCSRFToken("x"))
		opened := false

		cfg := testCaptureConfig()
		cfg.RedirectAddr = holder.Addr()
		_, err := Capture(context.Background(), cfg, WithBrowserOpener(func(string) error {
			opened = true
			return nil
		}))
		assert.ErrorIs(t, err, ErrAlreadyRunning)
		assert.False(t, opened, "browser must not be opened without a listener")
	})
}
