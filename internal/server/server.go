package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/mcparam/internal/discovery"
	"github.com/muurk/mcparam/internal/logging"
	"github.com/muurk/mcparam/internal/param"
	"github.com/muurk/mcparam/internal/protocol"
	"github.com/muurk/mcparam/internal/store"
	"github.com/muurk/mcparam/internal/version"
)

// DefaultShutdownTimeout bounds how long Run waits for HTTP handlers on exit
const DefaultShutdownTimeout = 10 * time.Second

// Config holds the server configuration
type Config struct {
	Host     string
	Port     int    // 0 picks a free port
	CertPath string // TLS is enabled when both paths are set
	KeyPath  string

	Advertise bool   // register with mDNS
	Instance  string // mDNS instance name

	ShutdownTimeout time.Duration
}

// Option configures optional collaborators
type Option func(*Server)

// WithAutosaver runs a on the server's lifecycle
func WithAutosaver(a *store.Autosaver) Option {
	return func(s *Server) { s.autosaver = a }
}

// WithTLSConfig overrides the TLS configuration built from CertPath/KeyPath
func WithTLSConfig(c *tls.Config) Option {
	return func(s *Server) { s.tlsConfig = c }
}

// Server serves one registry over the tuning link and the JSON read API
type Server struct {
	config    Config
	reg       *param.Registry
	autosaver *store.Autosaver
	tlsConfig *tls.Config

	upgrader   websocket.Upgrader
	handler    http.Handler
	httpServer *http.Server

	mu       sync.Mutex
	sessions map[string]*session
	wg       sync.WaitGroup
	unwatch  func()

	addr   string
	ready  chan struct{}
	closed sync.Once
}

// New creates a server for reg. Value changes are broadcast to connected
// sessions from the moment New returns. reg must fit the tuning link's
// 16-bit index and count.
func New(config Config, reg *param.Registry, opts ...Option) (*Server, error) {
	if n := reg.Len(); n > protocol.MaxParams {
		return nil, fmt.Errorf("registry has %d parameters, the tuning link carries at most %d", n, protocol.MaxParams)
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{
		config:   config,
		reg:      reg,
		sessions: make(map[string]*session),
		ready:    make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Tuning clients are tools, not browsers
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.tlsConfig == nil && config.CertPath != "" && config.KeyPath != "" {
		tlsConfig, err := NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		s.tlsConfig = tlsConfig
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.Handle("GET /api/params", logRequests(http.HandlerFunc(s.handleListParams)))
	mux.Handle("GET /api/params/{name}", logRequests(http.HandlerFunc(s.handleGetParam)))
	mux.Handle("GET /api/health", logRequests(http.HandlerFunc(s.handleHealth)))
	s.handler = mux

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig:         s.tlsConfig,
	}

	s.unwatch = reg.Watch(s.broadcastChange)
	return s, nil
}

// Handler returns the root HTTP handler for use in tests
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listening address once Run has bound it. It is empty
// when Run failed to listen.
func (s *Server) Addr() string {
	<-s.ready
	return s.addr
}

// Run serves until ctx ends. The HTTP server, the mDNS advertiser and the
// autosaver share one lifecycle: the first to fail stops the others.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		close(s.ready)
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if s.tlsConfig != nil {
		ln = tls.NewListener(ln, s.tlsConfig)
	}
	s.addr = ln.Addr().String()
	close(s.ready)

	logging.Info("Starting tuning server",
		zap.String("addr", s.addr),
		zap.Int("params", s.reg.Len()),
		zap.Any("tls_info", tlsInfo(s.tlsConfig)),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logging.Info("Shutting down tuning server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
		defer cancel()
		err := s.httpServer.Shutdown(shutdownCtx)
		s.closeSessions()
		return err
	})

	if s.autosaver != nil {
		g.Go(func() error {
			return s.autosaver.Run(gctx)
		})
	}

	if s.config.Advertise {
		port := ln.Addr().(*net.TCPAddr).Port
		g.Go(func() error {
			return discovery.Advertise(gctx, s.config.Instance, port, s.txtRecords())
		})
	}

	err = g.Wait()
	logging.Sync()
	return err
}

// Close stops broadcasting and disconnects every session. Run calls it on exit.
func (s *Server) Close() {
	s.closed.Do(func() {
		s.unwatch()
		s.closeSessions()
	})
}

func (s *Server) txtRecords() []string {
	tlsFlag := "0"
	if s.tlsConfig != nil {
		tlsFlag = "1"
	}
	return []string{
		discovery.TXTPath + "=/ws",
		discovery.TXTTLS + "=" + tlsFlag,
		discovery.TXTVersion + "=" + version.Version,
		discovery.TXTParams + "=" + strconv.Itoa(s.reg.Len()),
	}
}

// SessionCount returns the number of connected tuning sessions
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) addSession(sess *session) {
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
}

func (s *Server) removeSession(sess *session) {
	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
}

func (s *Server) snapshotSessions() []*session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// closeSessions disconnects every session and waits for their goroutines
func (s *Server) closeSessions() {
	for _, sess := range s.snapshotSessions() {
		logging.LogConnection(sess.remoteAddr, sess.id, "closing")
		sess.close()
	}
	s.wg.Wait()
}
