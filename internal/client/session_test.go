package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tonearm/internal/host"
	"tonearm/internal/player"
	"tonearm/internal/transport/ws"
	"tonearm/pkg/messages"
)

type staticAuthenticator struct{}

func (staticAuthenticator) Authenticate(_ context.Context, auth messages.Auth) (messages.User, messages.RefreshToken, error) {
	if auth.Kind == messages.AuthToken && auth.RefreshToken == "revoked" {
		return messages.User{}, "", errors.New("invalid_grant")
	}
	return messages.User{Username: "nelly", ID: "1"}, "refresh-2", nil
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

// startHost runs a real host with a joined player.
func startHost(t *testing.T) (*player.Store, string) {
	t.Helper()
	store := player.NewStore()
	store.SetVoice(&messages.VoiceState{ChannelID: 9, ChannelName: "music"})
	queue := player.NewQueue(store, messages.BotInfo{Name: "tonearm"})
	require.NoError(t, queue.Apply(messages.PlayerControl{Kind: messages.ControlJoin}))

	srv := httptest.NewServer(host.New(host.Config{}, staticAuthenticator{}, store, queue, nil).Handler())
	t.Cleanup(srv.Close)
	return store, wsURL(srv, host.DefaultWSPath)
}

func runSession(t *testing.T, url string, h Handler) *Session {
	t.Helper()
	s, err := Connect(context.Background(), url)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, h) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s
}

func TestSession_AgainstHost(t *testing.T) {
	store, url := startHost(t)

	states := make(chan *messages.PlayerState, 16)
	s := runSession(t, url, Handler{OnState: func(p *messages.PlayerState) { states <- p }})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ok, err := s.AuthStatus(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	user, refresh, err := s.Authenticate(ctx, messages.CodeAuth("code"))
	require.NoError(t, err)
	assert.Equal(t, "nelly", user.Username)
	assert.Equal(t, messages.RefreshToken("refresh-2"), refresh)

	select {
	case <-states:
	case <-ctx.Done():
		t.Fatal("no initial state")
	}

	ctl, err := messages.Enqueue("https://example.com/track")
	require.NoError(t, err)
	result, err := s.Control(ctx, ctl)
	require.NoError(t, err)
	assert.True(t, result.OK())
	assert.Equal(t, ctl, result.Request)

	require.Eventually(t, func() bool {
		mirrored, ok := s.State()
		return ok && mirrored.Equal(*store.Snapshot().State)
	}, 5*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		v := s.Voice()
		return v != nil && v.ChannelName == "music"
	}, 5*time.Second, 10*time.Millisecond)

	_, err = s.Control(ctx, messages.PlayerControl{Kind: messages.ControlSetTime, Time: time.Hour})
	var ctlErr *ControlError
	require.True(t, errors.As(err, &ctlErr))
	assert.Contains(t, ctlErr.Reason, player.ErrSeekOutOfRange.Error())
}

func TestSession_AuthRejected(t *testing.T) {
	_, url := startHost(t)
	s := runSession(t, url, Handler{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := s.Authenticate(ctx, messages.TokenAuth("revoked"))
	assert.ErrorIs(t, err, ErrAuthRejected)
	assert.Contains(t, err.Error(), "invalid_grant")
}

// slowAuthenticator takes delay to accept any credential.
type slowAuthenticator struct {
	delay time.Duration
}

func (a slowAuthenticator) Authenticate(ctx context.Context, _ messages.Auth) (messages.User, messages.RefreshToken, error) {
	select {
	case <-time.After(a.delay):
		return messages.User{Username: "nelly", ID: "1"}, "refresh-2", nil
	case <-ctx.Done():
		return messages.User{}, "", ctx.Err()
	}
}

func TestSession_LateAuthReplyIsDropped(t *testing.T) {
	store := player.NewStore()
	queue := player.NewQueue(store, messages.BotInfo{Name: "tonearm"})
	srv := httptest.NewServer(host.New(host.Config{}, slowAuthenticator{delay: 300 * time.Millisecond}, store, queue, nil).Handler())
	t.Cleanup(srv.Close)
	s := runSession(t, wsURL(srv, host.DefaultWSPath), Handler{})

	short, cancelShort := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelShort()
	_, _, err := s.Authenticate(short, messages.CodeAuth("code"))
	require.ErrorIs(t, err, context.DeadlineExceeded)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// The host finishes the abandoned login before answering, so both
	// status calls see it; neither may receive the stale AuthSuccess.
	for i := 0; i < 2; i++ {
		ok, err := s.AuthStatus(ctx)
		require.NoError(t, err, "status call %d", i)
		assert.True(t, ok, "status call %d", i)
	}
}

// scriptedHost sends the given messages after the client's first request,
// then records every request it receives.
func scriptedHost(t *testing.T, script []messages.Message) (string, <-chan messages.ClientRequest) {
	t.Helper()
	requests := make(chan messages.ClientRequest, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Upgrader{}.Upgrade(w, r)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, msg := range script {
			if err := conn.Send(msg); err != nil {
				return
			}
		}
		for {
			data, err := conn.ReadFrame()
			if err != nil {
				return
			}
			msg, err := messages.Parse(data)
			if err != nil || msg.Kind != messages.KindClientRequest {
				continue
			}
			requests <- *msg.ClientRequest
		}
	}))
	t.Cleanup(srv.Close)
	return wsURL(srv, "/ws"), requests
}

func TestSession_RequestsResyncOnce(t *testing.T) {
	a := messages.PlayerState{Bot: messages.BotInfo{Name: "a"}}
	b := messages.PlayerState{Bot: messages.BotInfo{Name: "b"}}
	c := messages.PlayerState{Bot: messages.BotInfo{Name: "c"}}
	patchBC, err := messages.GeneratePatch(b, c)
	require.NoError(t, err)

	// The client holds a; both patches are against b.
	url, requests := scriptedHost(t, []messages.Message{
		messages.FullState(a),
		messages.UpdateState(patchBC),
		messages.UpdateState(patchBC),
	})
	s := runSession(t, url, Handler{})

	select {
	case req := <-requests:
		assert.Equal(t, messages.RequestResync, req.Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("no resync requested")
	}
	select {
	case req := <-requests:
		t.Fatalf("unexpected second request %s", req.Kind)
	case <-time.After(100 * time.Millisecond):
	}

	mirrored, ok := s.State()
	require.True(t, ok)
	assert.Equal(t, "a", mirrored.Bot.Name)
}

func TestSession_RejectsClientOnlyMessages(t *testing.T) {
	url, requests := scriptedHost(t, []messages.Message{messages.End()})
	_ = runSession(t, url, Handler{})

	// The complaint is not a ClientRequest, so nothing is recorded; the
	// session keeps running.
	select {
	case req := <-requests:
		t.Fatalf("unexpected request %s", req.Kind)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSession_CallsFailAfterRunEnds(t *testing.T) {
	_, url := startHost(t)
	s, err := Connect(context.Background(), url)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, Handler{}) }()
	cancel()
	<-done

	_, err = s.AuthStatus(context.Background())
	assert.Error(t, err)
}
