package host

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"tonearm/internal/metrics"
	"tonearm/internal/player"
	"tonearm/internal/transport/ws"
	"tonearm/pkg/logging"
	"tonearm/pkg/messages"
	"tonearm/pkg/statesync"
)

// errEnd stops the session after the client asked to end it.
var errEnd = errors.New("session ended by client")

// ErrNotAuthenticated is reported for controls sent before authentication.
var ErrNotAuthenticated = errors.New("not authenticated")

type session struct {
	server    *Server
	conn      *ws.Conn
	metrics   *metrics.Metrics
	publisher *statesync.Publisher

	mu   sync.Mutex
	user *messages.User
	// lapsed is set when a failed Authenticate revoked an earlier login.
	lapsed bool

	authenticated chan struct{}
	authOnce      sync.Once
	resync        chan struct{}

	// Owned by the sync loop.
	sentEmpty bool
	sentVoice bool
	lastVoice *messages.VoiceState
}

func (s *session) init(server *Server, conn *ws.Conn) {
	s.server = server
	s.conn = conn
	s.metrics = server.metrics
	s.publisher = statesync.NewPublisher()
	s.authenticated = make(chan struct{})
	s.resync = make(chan struct{}, 1)
}

func (s *session) run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.readLoop(ctx) })
	g.Go(func() error { return s.syncLoop(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		_ = s.conn.Close()
		return nil
	})

	err := g.Wait()
	if errors.Is(err, errEnd) || errors.Is(err, ws.ErrClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *session) send(msg messages.Message) error {
	if err := s.conn.Send(msg); err != nil {
		return err
	}
	s.metrics.MessagesSent.WithLabelValues(msg.Kind.String()).Inc()
	return nil
}

func (s *session) isAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

func (s *session) readLoop(ctx context.Context) error {
	for {
		data, err := s.conn.ReadFrame()
		var textErr *ws.TextFrameError
		switch {
		case errors.As(err, &textErr):
			s.metrics.MessagesRecv.WithLabelValues("text").Inc()
			logging.Debug("Host", "Client sent a text frame")
			if err := s.send(messages.TextFrame(textErr.Text)); err != nil {
				return err
			}
			continue
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		msg, err := messages.Parse(data)
		if err != nil {
			s.metrics.MessagesRecv.WithLabelValues("invalid").Inc()
			logging.Debug("Host", "Unparsable frame of %d bytes: %v", len(data), err)
			if err := s.send(messages.ParseFailure(data, err.Error())); err != nil {
				return err
			}
			continue
		}
		s.metrics.MessagesRecv.WithLabelValues(msg.Kind.String()).Inc()

		if msg.Kind != messages.KindClientRequest {
			logging.Debug("Host", "Client sent host-only message %s", msg)
			if err := s.send(messages.WrongMessageType(msg.Kind.String())); err != nil {
				return err
			}
			continue
		}

		if err := s.handleRequest(ctx, *msg.ClientRequest); err != nil {
			return err
		}
	}
}

func (s *session) handleRequest(ctx context.Context, req messages.ClientRequest) error {
	switch req.Kind {
	case messages.RequestAuthenticate:
		return s.authenticate(ctx, *req.Auth)

	case messages.RequestAuthStatus:
		return s.send(messages.AuthStatus(s.isAuthenticated()))

	case messages.RequestControl:
		result := messages.PlayerControlResult{ID: req.ID, Request: *req.Control}
		var err error
		if !s.isAuthenticated() {
			err = ErrNotAuthenticated
		} else {
			err = s.server.controller.Apply(*req.Control)
		}
		s.metrics.Controls.WithLabelValues(req.Control.Kind.String(), metrics.Result(err)).Inc()
		if err != nil {
			logging.Debug("Host", "Control %s failed: %v", req.Control, err)
			result.Error = err.Error()
		}
		return s.send(messages.NewControlResult(result))

	case messages.RequestResync:
		if !s.isAuthenticated() {
			return nil
		}
		select {
		case s.resync <- struct{}{}:
		default:
		}
		return nil

	case messages.RequestEnd:
		return errEnd

	default:
		return fmt.Errorf("unhandled request %s", req.Kind)
	}
}

func (s *session) authenticate(ctx context.Context, auth messages.Auth) error {
	user, refresh, err := s.server.auth.Authenticate(ctx, auth)
	s.metrics.Authentications.WithLabelValues(auth.Kind.String(), metrics.Result(err)).Inc()
	if err != nil {
		logging.Warn("Host", "Authentication with %s credential failed: %v", auth.Kind, err)
		// A rejected credential ends any earlier login on this session.
		s.mu.Lock()
		if s.user != nil {
			s.user = nil
			s.lapsed = true
		}
		s.mu.Unlock()
		return s.send(messages.AuthError(err.Error()))
	}

	s.mu.Lock()
	s.user = &user
	relogin := s.lapsed
	s.lapsed = false
	s.mu.Unlock()

	if err := s.send(messages.AuthSuccess(user, refresh)); err != nil {
		return err
	}
	s.authOnce.Do(func() { close(s.authenticated) })
	if relogin {
		// The sync loop dropped its baseline while the login was revoked.
		select {
		case s.resync <- struct{}{}:
		default:
		}
	}
	return nil
}

// syncLoop waits for authentication, then mirrors every store change to
// the client.
func (s *session) syncLoop(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.authenticated:
	}

	updates, cancel := s.server.store.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.resync:
			s.forget()
			if !s.isAuthenticated() {
				continue
			}
			logging.Debug("Host", "Sending full state")
			if err := s.publish(s.server.store.Snapshot()); err != nil {
				return err
			}
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			if !s.isAuthenticated() {
				s.forget()
				continue
			}
			if err := s.publish(snap); err != nil {
				return err
			}
		}
	}
}

// forget drops everything the client is known to hold, so the next publish
// starts with a full state.
func (s *session) forget() {
	s.publisher.Reset()
	s.sentEmpty = false
	s.sentVoice = false
	s.lastVoice = nil
}

func (s *session) publish(snap player.Snapshot) error {
	if !s.sentVoice || !sameVoice(s.lastVoice, snap.Voice) {
		if err := s.send(messages.NewUserVoiceState(snap.Voice)); err != nil {
			return err
		}
		s.sentVoice = true
		s.lastVoice = snap.Voice
	}

	if snap.State == nil {
		if s.sentEmpty {
			return nil
		}
		s.sentEmpty = true
		s.metrics.StateSyncs.WithLabelValues(messages.StateEmpty.String()).Inc()
		return s.send(s.publisher.Clear())
	}
	s.sentEmpty = false

	msg, ok := s.publisher.Next(*snap.State)
	if !ok {
		return nil
	}
	s.metrics.StateSyncs.WithLabelValues(msg.PlayerState.Kind.String()).Inc()
	if msg.PlayerState.Kind == messages.StateUpdate {
		s.metrics.PatchBytes.Observe(float64(len(msg.PlayerState.Update)))
	}
	return s.send(msg)
}

func sameVoice(a, b *messages.VoiceState) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
