// Package gateway serves the back-office admin API: a chi REST router under
// /api, a WebSocket RPC endpoint at /ws that also streams dispatched events,
// and /health.
package gateway

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/soyeahso/backoffice/internal/admin"
	"github.com/soyeahso/backoffice/internal/config"
	"github.com/soyeahso/backoffice/internal/events"
	"github.com/soyeahso/backoffice/internal/logging"
	"github.com/soyeahso/backoffice/internal/version"
)

var ErrClientClosed = errors.New("client connection closed")

const (
	// broadcastPriority runs the event feed after every other listener so
	// clients see the final payload.
	broadcastPriority = -1024

	shutdownTimeout = 10 * time.Second
)

// Server is the admin HTTP and WebSocket server.
type Server struct {
	cfg      config.Config
	auth     ResolvedAuth
	log      *logging.Logger
	clients  *ClientRegistry
	handlers map[string]RequestHandler
	version  string
	eventSeq atomic.Int64

	mu        sync.RWMutex
	configRaw map[string]any

	// nil leaves /api and the admin RPC methods answering "unavailable".
	admin *admin.Service

	startedAt   time.Time
	httpServer  *http.Server
	upgrader    websocket.Upgrader
	authLimiter *authRateLimiter
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithConfigRaw sets the raw config map served by config.get and edited by
// config.set.
func WithConfigRaw(raw map[string]any) ServerOption {
	return func(s *Server) { s.configRaw = raw }
}

// WithAdmin sets the service behind the REST API and the RPC methods.
// Events dispatched through it are forwarded to connected clients.
func WithAdmin(svc *admin.Service) ServerOption {
	return func(s *Server) { s.admin = svc }
}

// New builds a Server. It does not listen until Start.
func New(cfg config.Config, log *logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:         cfg,
		auth:        ResolveAuth(cfg.Gateway.Auth),
		log:         log.Sub("gateway"),
		clients:     NewClientRegistry(log.Sub("clients")),
		handlers:    make(map[string]RequestHandler),
		version:     version.Version,
		configRaw:   make(map[string]any),
		authLimiter: newAuthRateLimiter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkWebSocketOrigin(cfg.Gateway.ControlUI.AllowedOrigins),
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerRPCHandlers()
	if s.admin != nil {
		for _, name := range events.Broadcast {
			s.admin.Events().On(name, "gateway.broadcast", broadcastPriority, s.broadcastEvent)
		}
	}
	return s
}

func (s *Server) broadcastEvent(_ context.Context, e *events.Event) error {
	if s.clients.Count() == 0 {
		return nil
	}
	n := s.clients.Broadcast(e.Name, e.Payload, s.eventSeq.Add(1))
	s.log.Debug().Str("event", e.Name).Int("clients", n).Msg("broadcast")
	return nil
}

// Handle registers an RPC method.
func (s *Server) Handle(method string, handler RequestHandler) {
	s.handlers[method] = handler
}

// Methods returns the registered RPC method names, sorted.
func (s *Server) Methods() []string {
	methods := make([]string, 0, len(s.handlers))
	for m := range s.handlers {
		methods = append(methods, m)
	}
	slices.Sort(methods)
	return methods
}

// resolveBindAddr maps gateway.bind to a listen address. Unknown values
// fall back to loopback.
func resolveBindAddr(cfg config.GatewayConfig) string {
	host := "127.0.0.1"
	switch cfg.Bind {
	case "lan", "auto":
		host = "0.0.0.0"
	case "custom":
		host = cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
	}
	return net.JoinHostPort(host, strconv.Itoa(cfg.Port))
}

// listen opens the gateway socket, wrapped in TLS when configured.
func (s *Server) listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	tlsCfg := s.cfg.Gateway.TLS
	if !tlsCfg.Enabled {
		if s.cfg.Gateway.Bind != "loopback" {
			s.log.Warn().Msg("TLS is not enabled, credentials travel in cleartext")
		}
		return ln, nil
	}

	cert, err := tls.LoadX509KeyPair(tlsCfg.CertPath, tlsCfg.KeyPath)
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("loading TLS certificate: %w", err)
	}
	s.log.Info().Msg("TLS enabled")
	return tls.NewListener(ln, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}), nil
}

// Start serves until ctx is cancelled. server.start and server.stop are
// emitted on the admin dispatcher around the serving period.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Gateway)
	ln, err := s.listen(addr)
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	s.startedAt = time.Now()

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Gateway.Bind).
		Str("auth", s.auth.Mode).
		Int("methods", len(s.handlers)).
		Msg("gateway server starting")
	s.emit(ctx, events.ServerStart, map[string]any{"addr": ln.Addr().String()})

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		s.emit(context.Background(), events.ServerStop, nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.clients.CloseAll()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("gateway shutdown")
		}
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) emit(ctx context.Context, name string, data map[string]any) {
	if s.admin != nil {
		s.admin.Events().Emit(ctx, name, data)
	}
}

// Addr returns the configured listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}
