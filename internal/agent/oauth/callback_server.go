package oauth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"tonearm/pkg/logging"
	"tonearm/pkg/messages"
)

const (
	// closedPage is the whole body the browser gets back.
	closedPage = "This page can be closed now"

	// requestReadTimeout bounds how long a connected browser may take to
	// send its request line.
	requestReadTimeout = 30 * time.Second

	// maxRequestLine bounds the request line we buffer.
	maxRequestLine = 16 << 10
)

// CaptureState is the lifecycle of a CallbackServer.
type CaptureState int

const (
	StateIdle CaptureState = iota
	StateListenerBound
	StateConnectionReceived
	StateValidated
	StateRejected
)

func (s CaptureState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateListenerBound:
		return "ListenerBound"
	case StateConnectionReceived:
		return "ConnectionReceived"
	case StateValidated:
		return "Validated"
	case StateRejected:
		return "Rejected"
	default:
		return fmt.Sprintf("CaptureState(%d)", int(s))
	}
}

// CallbackServer receives exactly one authorization redirect on a raw TCP
// listener. It accepts a single connection, reads its request line, answers
// with a fixed page and closes the listener whatever the outcome.
type CallbackServer struct {
	addr     string
	expected CSRFToken

	mu       sync.Mutex
	state    CaptureState
	listener net.Listener
	conn     net.Conn
	cause    error

	done chan struct{}
	code messages.AuthorizationCode
	err  error
}

// NewCallbackServer returns a server for addr ("host:port") that will
// accept only redirects carrying expected as their state.
func NewCallbackServer(addr string, expected CSRFToken) *CallbackServer {
	return &CallbackServer{
		addr:     addr,
		expected: expected,
		done:     make(chan struct{}),
	}
}

// Start binds the listener and begins waiting for the redirect in the
// background. Binding failure is ErrAlreadyRunning.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return fmt.Errorf("callback server already started (%s)", s.state)
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAlreadyRunning, s.addr, err)
	}
	s.listener = listener
	s.state = StateListenerBound
	logging.Debug("Capture", "Listening for redirect on %s", listener.Addr())

	go s.serve()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *CallbackServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// State returns the current lifecycle state.
func (s *CallbackServer) State() CaptureState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Wait blocks until the redirect has been handled, ctx is done, or timeout
// elapses (zero means no timeout). The listener is released before Wait
// returns.
func (s *CallbackServer) Wait(ctx context.Context, timeout time.Duration) (messages.AuthorizationCode, error) {
	if s.State() == StateIdle {
		return "", errors.New("callback server not started")
	}

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case <-s.done:
	case <-ctx.Done():
		s.Stop(ctx.Err())
	case <-timer:
		s.Stop(ErrCaptureTimeout)
	}
	<-s.done
	return s.code, s.err
}

// Stop aborts a pending capture. Wait then returns cause unless the
// redirect was already handled.
func (s *CallbackServer) Stop(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cause == nil {
		s.cause = cause
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

func (s *CallbackServer) serve() {
	defer close(s.done)

	conn, err := s.listener.Accept()
	// Single shot: no second connection is ever accepted.
	_ = s.listener.Close()

	s.mu.Lock()
	if err != nil {
		s.finishLocked("", s.abortErrorLocked(fmt.Errorf("accepting redirect: %w", err)))
		s.mu.Unlock()
		return
	}
	if s.cause != nil {
		_ = conn.Close()
		s.finishLocked("", s.cause)
		s.mu.Unlock()
		return
	}
	s.conn = conn
	s.state = StateConnectionReceived
	s.mu.Unlock()

	code, err := s.handle(conn)
	_ = conn.Close()

	s.mu.Lock()
	s.conn = nil
	s.finishLocked(code, s.abortErrorLocked(err))
	s.mu.Unlock()
}

// abortErrorLocked prefers the Stop cause over the I/O error it provoked.
func (s *CallbackServer) abortErrorLocked(err error) error {
	if err != nil && s.cause != nil {
		return s.cause
	}
	return err
}

func (s *CallbackServer) finishLocked(code messages.AuthorizationCode, err error) {
	if err != nil {
		s.state = StateRejected
		s.err = err
		return
	}
	s.state = StateValidated
	s.code = code
}

func (s *CallbackServer) handle(conn net.Conn) (messages.AuthorizationCode, error) {
	_ = conn.SetDeadline(time.Now().Add(requestReadTimeout))

	line, err := readRequestLine(bufio.NewReaderSize(conn, 4096))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadLine, err)
	}

	// The browser gets the closed page whatever the request turns out to be.
	writeClosedPage(conn)

	return parseRedirect(line, s.expected)
}

func readRequestLine(r *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return "", err
		}
		sb.Write(chunk)
		if sb.Len() > maxRequestLine {
			return "", errors.New("request line too long")
		}
		if !isPrefix {
			return sb.String(), nil
		}
	}
}

func writeClosedPage(conn net.Conn) {
	response := fmt.Sprintf("HTTP/1.1 200 OK\r\ncontent-length: %d\r\n\r\n%s", len(closedPage), closedPage)
	if _, err := conn.Write([]byte(response)); err != nil {
		logging.Debug("Capture", "Writing closed page failed: %v", err)
	}
}

// parseRedirect extracts the code from a request line such as
// "GET /?code=ABC&state=XYZ HTTP/1.1" after checking its state.
func parseRedirect(line string, expected CSRFToken) (messages.AuthorizationCode, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", ErrRequestSplit
	}

	u, err := url.Parse("http://localhost" + fields[1])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}
	q := u.Query()

	if !q.Has("code") {
		return "", ErrNoCodeInResponse
	}
	if !q.Has("state") {
		return "", ErrNoCSRFInResponse
	}

	received := NewCSRFToken(q.Get("state"))
	if !received.Equal(expected) {
		logging.Warn("Capture", "Rejecting redirect: received %s, expected %s", received, expected)
		return "", &CSRFMismatchError{Received: received, Expected: expected}
	}
	return messages.AuthorizationCode(q.Get("code")), nil
}
