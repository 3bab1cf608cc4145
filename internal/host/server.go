package host

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"tonearm/internal/metrics"
	"tonearm/internal/player"
	"tonearm/internal/transport/ws"
	"tonearm/pkg/logging"
	"tonearm/pkg/messages"
)

const (
	// DefaultWSPath is where clients connect.
	DefaultWSPath = "/ws"

	// DefaultReadHeaderTimeout is the default timeout for reading request headers.
	DefaultReadHeaderTimeout = 10 * time.Second

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 5 * time.Second
)

// Authenticator turns a client credential into a user and the refresh
// token the client should keep.
type Authenticator interface {
	Authenticate(ctx context.Context, auth messages.Auth) (messages.User, messages.RefreshToken, error)
}

// Controller applies player controls.
type Controller interface {
	Apply(ctl messages.PlayerControl) error
}

// Config configures a Server.
type Config struct {
	// Listen is the address ListenAndServe binds.
	Listen string
	// WSPath defaults to DefaultWSPath.
	WSPath string
	// CheckOrigin is handed to the WebSocket upgrader.
	CheckOrigin func(r *http.Request) bool
}

// Server accepts client sessions.
type Server struct {
	config     Config
	auth       Authenticator
	store      *player.Store
	controller Controller
	metrics    *metrics.Metrics

	mu     sync.Mutex
	active *session
	// closing is set once Serve starts shutting down; no session may
	// start after that.
	closing bool

	sessions sync.WaitGroup
}

// New returns a Server. m may be nil.
func New(cfg Config, auth Authenticator, store *player.Store, controller Controller, m *metrics.Metrics) *Server {
	if cfg.WSPath == "" {
		cfg.WSPath = DefaultWSPath
	}
	if m == nil {
		m = metrics.New()
	}
	return &Server{
		config:     cfg,
		auth:       auth,
		store:      store,
		controller: controller,
		metrics:    m,
	}
}

// Handler routes the WebSocket endpoint, /metrics and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc(s.config.WSPath, s.ServeWS)

	return mux
}

// ServeWS upgrades the request and runs a session until it ends.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		http.Error(w, "host is shutting down", http.StatusServiceUnavailable)
		return
	}
	if s.active != nil {
		s.mu.Unlock()
		logging.Warn("Host", "Refusing connection from %s: a client is already paired", r.RemoteAddr)
		http.Error(w, "a client is already connected", http.StatusConflict)
		return
	}
	// Reserve the slot before upgrading so two handshakes cannot race.
	sess := &session{}
	s.active = sess
	// Added under mu so it always happens before the Wait in Serve.
	s.sessions.Add(1)
	s.mu.Unlock()
	defer s.sessions.Done()

	defer func() {
		s.mu.Lock()
		s.active = nil
		s.mu.Unlock()
	}()

	conn, err := ws.Upgrader{CheckOrigin: s.config.CheckOrigin}.Upgrade(w, r)
	if err != nil {
		logging.Debug("Host", "Upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}

	s.metrics.Sessions.Inc()
	defer s.metrics.Sessions.Dec()

	sess.init(s, conn)
	logging.Info("Host", "Client connected from %s", conn.RemoteAddr())
	if err := sess.run(r.Context()); err != nil {
		logging.Warn("Host", "Session with %s ended: %v", conn.RemoteAddr(), err)
		return
	}
	logging.Info("Host", "Client %s disconnected", conn.RemoteAddr())
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Host", "Listening on %s", listener.Addr())
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	// Hijacked WebSocket connections are not tracked by Shutdown; they end
	// through the cancelled base context.
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.sessions.Wait()
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
