// Package gateway serves the chat page, the agent proxy and the facility
// MCP endpoint from a single HTTP server.
package gateway

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/soyeahso/agentchat/internal/agents"
	"github.com/soyeahso/agentchat/internal/config"
	"github.com/soyeahso/agentchat/internal/facility"
	"github.com/soyeahso/agentchat/internal/hooks"
	"github.com/soyeahso/agentchat/internal/logging"
	"github.com/soyeahso/agentchat/internal/metrics"
	"github.com/soyeahso/agentchat/internal/runtime"
	"github.com/soyeahso/agentchat/internal/version"
	"github.com/soyeahso/agentchat/internal/web"
)

const shutdownTimeout = 10 * time.Second

// Server is the agentchat HTTP gateway.
type Server struct {
	cfg      config.Config
	log      *logging.Logger
	registry *agents.Registry
	runtime  *runtime.Handler
	shell    *web.Shell

	// optional
	facility       *facility.Service
	hooks          *hooks.Manager
	metrics        *metrics.Metrics
	runtimeOptions []runtime.Option

	startedAt  time.Time
	mu         sync.Mutex
	httpServer *http.Server
	addr       string
}

// ServerOption configures the gateway server.
type ServerOption func(*Server)

// WithHooks sets the hook manager for lifecycle and proxy events.
func WithHooks(hm *hooks.Manager) ServerOption {
	return func(s *Server) {
		s.hooks = hm
	}
}

// WithMetrics sets the collectors served on the metrics path.
func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithFacility enables the facility MCP endpoint.
func WithFacility(svc *facility.Service) ServerOption {
	return func(s *Server) {
		s.facility = svc
	}
}

// WithRuntimeOptions passes extra options to the proxy handler.
func WithRuntimeOptions(opts ...runtime.Option) ServerOption {
	return func(s *Server) {
		s.runtimeOptions = append(s.runtimeOptions, opts...)
	}
}

// New creates a gateway server. No connection to any agent is made here.
func New(cfg config.Config, log *logging.Logger, opts ...ServerOption) (*Server, error) {
	s := &Server{
		cfg: cfg,
		log: log.Sub("gateway"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil && cfg.Metrics.Enabled {
		s.metrics = metrics.New()
	}
	s.metrics.SetBuildInfo(version.Version, version.Commit, version.Date)

	reg, err := agents.New(cfg.Agents)
	if err != nil {
		return nil, fmt.Errorf("building agent registry: %w", err)
	}
	s.registry = reg

	rtOpts := append([]runtime.Option{
		runtime.WithTimeout(cfg.Runtime.Timeout),
		runtime.WithMetrics(s.metrics),
		runtime.WithHooks(s.hooks),
	}, s.runtimeOptions...)
	s.runtime, err = runtime.New(reg, cfg.Runtime.Agent, log, rtOpts...)
	if err != nil {
		return nil, err
	}

	s.shell, err = web.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("building chat page: %w", err)
	}
	return s, nil
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.GatewayConfig) string {
	switch cfg.Bind {
	case "loopback":
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	case "lan", "auto":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return net.JoinHostPort(host, fmt.Sprint(cfg.Port))
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start listens and serves until ctx is cancelled, then shuts down
// gracefully. Proxied streams can be long, so there is no write timeout.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Gateway)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	if s.cfg.Gateway.TLS.Enabled {
		cert, err := tls.LoadX509KeyPair(s.cfg.Gateway.TLS.CertPath, s.cfg.Gateway.TLS.KeyPath)
		if err != nil {
			ln.Close()
			return fmt.Errorf("loading TLS certificate: %w", err)
		}
		ln = tls.NewListener(ln, &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		})
		s.log.Info().Msg("TLS enabled")
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.mu.Lock()
	s.httpServer = srv
	s.addr = ln.Addr().String()
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.log.Info().
		Str("addr", s.Addr()).
		Str("bind", s.cfg.Gateway.Bind).
		Str("endpoint", s.cfg.Runtime.Endpoint).
		Str("agent", s.runtime.DefaultAgent()).
		Int("agents", s.registry.Len()).
		Msg("gateway server ready")

	if s.hooks != nil {
		s.hooks.Emit(ctx, hooks.EventGatewayStart, map[string]any{
			"addr":  s.Addr(),
			"agent": s.runtime.DefaultAgent(),
		})
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		if s.hooks != nil {
			s.hooks.Emit(context.Background(), hooks.EventGatewayStop, nil)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("graceful shutdown incomplete")
		}
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Uptime reports how long the server has been serving.
func (s *Server) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startedAt.IsZero() {
		return 0
	}
	return time.Since(s.startedAt)
}
