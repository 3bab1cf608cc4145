package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"tonearm/internal/transport/ws"
	"tonearm/pkg/logging"
	"tonearm/pkg/messages"
	"tonearm/pkg/statesync"
)

var (
	// ErrSessionClosed is returned by calls waiting on a session whose Run
	// has returned.
	ErrSessionClosed = errors.New("session closed")

	// ErrAuthRejected matches every *AuthError.
	ErrAuthRejected = errors.New("authentication rejected")
)

// AuthError is the host's refusal of a credential.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return "authentication rejected by host"
	}
	return "authentication rejected by host: " + e.Reason
}

func (e *AuthError) Is(target error) bool { return target == ErrAuthRejected }

// ControlError is a control the host could not apply.
type ControlError struct {
	Control messages.PlayerControl
	Reason  string
}

func (e *ControlError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Control, e.Reason)
}

// Handler receives mirror changes. Both callbacks are optional and are
// called from Run's goroutine.
type Handler struct {
	// OnState is called after every applied sync message with the mirrored
	// state, or nil when the host has no player.
	OnState func(state *messages.PlayerState)
	// OnVoice is called with the user's voice channel, or nil when the user
	// left voice.
	OnVoice func(voice *messages.VoiceState)
}

// Session is a connection to a host.
type Session struct {
	conn   *ws.Conn
	mirror *statesync.Mirror

	// authMu serialises Authenticate and AuthStatus; the host answers
	// auth requests in order.
	authMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan messages.PlayerControlResult
	voice   *messages.VoiceState
	// authWaiter receives the reply to the auth request in flight.
	// authStale counts replies still owed to callers that gave up; they
	// arrive first and are dropped.
	authWaiter chan messages.AuthMessage
	authStale  int

	done chan struct{}
}

// Connect dials the host's WebSocket endpoint.
func Connect(ctx context.Context, url string) (*Session, error) {
	conn, err := ws.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return NewSession(conn), nil
}

// NewSession wraps an established connection.
func NewSession(conn *ws.Conn) *Session {
	return &Session{
		conn:    conn,
		mirror:  statesync.NewMirror(),
		pending: make(map[string]chan messages.PlayerControlResult),
		done:    make(chan struct{}),
	}
}

// Run reads from the host until the connection ends or ctx is done. All
// other calls need Run to be running.
func (s *Session) Run(ctx context.Context, h Handler) error {
	defer close(s.done)

	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	defer stop()

	for {
		data, err := s.conn.ReadFrame()
		var textErr *ws.TextFrameError
		switch {
		case errors.As(err, &textErr):
			logging.Warn("Client", "Host sent a text frame")
			if err := s.conn.Send(messages.TextFrame(textErr.Text)); err != nil {
				return err
			}
			continue
		case errors.Is(err, ws.ErrClosed):
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		msg, err := messages.Parse(data)
		if err != nil {
			logging.Warn("Client", "Unparsable frame from host: %v", err)
			if err := s.conn.Send(messages.ParseFailure(data, err.Error())); err != nil {
				return err
			}
			continue
		}
		if err := s.dispatch(msg, h); err != nil {
			return err
		}
	}
}

func (s *Session) dispatch(msg messages.Message, h Handler) error {
	switch msg.Kind {
	case messages.KindAuth:
		s.mu.Lock()
		if s.authStale > 0 {
			s.authStale--
			s.mu.Unlock()
			logging.Debug("Client", "Dropping late %s reply", msg.Auth.Kind)
			return nil
		}
		ch := s.authWaiter
		s.authWaiter = nil
		s.mu.Unlock()
		if ch == nil {
			logging.Debug("Client", "Dropping unsolicited %s", msg.Auth.Kind)
			return nil
		}
		ch <- *msg.Auth

	case messages.KindClientControlResult:
		result := *msg.ClientControlResult
		s.mu.Lock()
		ch, ok := s.pending[result.ID]
		delete(s.pending, result.ID)
		s.mu.Unlock()
		if !ok {
			logging.Debug("Client", "Result for unknown control %s", result.ID)
			return nil
		}
		ch <- result

	case messages.KindPlayerState:
		wasStale := s.mirror.NeedsResync()
		if err := s.mirror.Apply(msg); err != nil {
			if !errors.Is(err, statesync.ErrResyncRequired) {
				return err
			}
			// The mirror ignores patches until the full state arrives, so
			// only the first failure asks for it.
			if wasStale {
				return nil
			}
			logging.Warn("Client", "State sync lost, requesting full state: %v", err)
			return s.conn.Send(messages.Resync())
		}
		if h.OnState != nil {
			if state, ok := s.mirror.State(); ok {
				h.OnState(&state)
			} else {
				h.OnState(nil)
			}
		}

	case messages.KindUserVoiceState:
		s.mu.Lock()
		s.voice = msg.UserVoiceState
		s.mu.Unlock()
		if h.OnVoice != nil {
			h.OnVoice(msg.UserVoiceState)
		}

	case messages.KindUnexpected:
		logging.Warn("Client", "Host reported a protocol error: %s %q", msg.Unexpected.Kind, msg.Unexpected.Text)

	default:
		return s.conn.Send(messages.WrongMessageType(msg.Kind.String()))
	}
	return nil
}

func (s *Session) awaitAuth(ctx context.Context, req messages.Message) (messages.AuthMessage, error) {
	s.authMu.Lock()
	defer s.authMu.Unlock()

	ch := make(chan messages.AuthMessage, 1)
	s.mu.Lock()
	s.authWaiter = ch
	s.mu.Unlock()

	if err := s.conn.Send(req); err != nil {
		s.abandonAuth(ch, false)
		return messages.AuthMessage{}, err
	}
	select {
	case reply := <-ch:
		return reply, nil
	case <-ctx.Done():
		s.abandonAuth(ch, true)
		return messages.AuthMessage{}, ctx.Err()
	case <-s.done:
		return messages.AuthMessage{}, ErrSessionClosed
	}
}

// abandonAuth withdraws the waiter ch. When the request reached the host
// and its reply has not been delivered yet, the reply is marked stale so it
// cannot answer the next request.
func (s *Session) abandonAuth(ch chan messages.AuthMessage, sent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authWaiter != ch {
		return
	}
	s.authWaiter = nil
	if sent {
		s.authStale++
	}
}

// Authenticate presents a credential and returns the user together with
// the refresh token to use next time.
func (s *Session) Authenticate(ctx context.Context, auth messages.Auth) (messages.User, messages.RefreshToken, error) {
	reply, err := s.awaitAuth(ctx, messages.Authenticate(auth))
	if err != nil {
		return messages.User{}, "", err
	}
	switch reply.Kind {
	case messages.AuthMessageSuccess:
		logging.Info("Client", "Authenticated as %s", reply.User.Username)
		return *reply.User, reply.RefreshToken, nil
	case messages.AuthMessageError:
		return messages.User{}, "", &AuthError{Reason: reply.Reason}
	default:
		return messages.User{}, "", fmt.Errorf("unexpected %s reply to Authenticate", reply.Kind)
	}
}

// AuthStatus asks the host whether this session is authenticated.
func (s *Session) AuthStatus(ctx context.Context) (bool, error) {
	reply, err := s.awaitAuth(ctx, messages.AuthStatusRequest())
	if err != nil {
		return false, err
	}
	if reply.Kind != messages.AuthMessageStatus {
		return false, fmt.Errorf("unexpected %s reply to AuthStatus", reply.Kind)
	}
	return reply.Authenticated, nil
}

// Control sends a player control and waits for its result. A control the
// host rejected is returned as *ControlError along with the result.
func (s *Session) Control(ctx context.Context, ctl messages.PlayerControl) (messages.PlayerControlResult, error) {
	id := uuid.NewString()
	ch := make(chan messages.PlayerControlResult, 1)

	s.mu.Lock()
	s.pending[id] = ch
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	if err := s.conn.Send(messages.Control(id, ctl)); err != nil {
		return messages.PlayerControlResult{}, err
	}

	select {
	case result := <-ch:
		if !result.OK() {
			return result, &ControlError{Control: result.Request, Reason: result.Error}
		}
		return result, nil
	case <-ctx.Done():
		return messages.PlayerControlResult{}, ctx.Err()
	case <-s.done:
		return messages.PlayerControlResult{}, ErrSessionClosed
	}
}

// Resync asks the host for a full state.
func (s *Session) Resync() error {
	return s.conn.Send(messages.Resync())
}

// End asks the host to close the session.
func (s *Session) End() error {
	return s.conn.Send(messages.End())
}

// State returns the mirrored player state.
func (s *Session) State() (messages.PlayerState, bool) {
	return s.mirror.State()
}

// Voice returns the user's last reported voice channel.
func (s *Session) Voice() *messages.VoiceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.voice == nil {
		return nil
	}
	v := *s.voice
	return &v
}

// Close closes the connection.
func (s *Session) Close() error {
	return s.conn.Close()
}
