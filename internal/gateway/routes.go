package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/soyeahso/agentchat/internal/mcpserver"
)

// Handler builds the routed handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	if c := corsMiddleware(s.cfg.Gateway.AllowedOrigins); c != nil {
		r.Use(c)
	}
	r.Use(loggingMiddleware(s.log, s.metrics))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	if s.cfg.Metrics.Enabled && s.metrics != nil {
		r.Handle(s.cfg.Metrics.Path, s.metrics.Handler())
	}

	s.shell.Routes(r)
	r.Route(s.cfg.Runtime.Endpoint, s.runtime.Routes)

	if s.cfg.MCP.Enabled {
		if s.facility != nil {
			r.Handle(s.cfg.MCP.Path, mcpserver.New(s.facility, s.log).Handler())
		} else {
			s.log.Warn().Msg("mcp enabled but no facility service configured")
		}
	}

	r.NotFound(handleNotFound)
	return r
}
