// Package runtime implements the chat runtime endpoint: it forwards chat
// protocol requests from the page to a registered remote agent and streams
// the agent's reply back unchanged.
package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/soyeahso/agentchat/internal/agents"
	"github.com/soyeahso/agentchat/internal/hooks"
	"github.com/soyeahso/agentchat/internal/logging"
	"github.com/soyeahso/agentchat/internal/metrics"
)

// ErrUnknownDefault is returned by New when the default agent is not registered.
var ErrUnknownDefault = errors.New("default agent is not registered")

// Handler serves the runtime endpoint.
type Handler struct {
	registry     *agents.Registry
	defaultAgent string
	timeout      time.Duration
	transport    http.RoundTripper
	log          *logging.Logger
	metrics      *metrics.Metrics
	hooks        *hooks.Manager

	proxies map[string]*httputil.ReverseProxy
}

// Option configures a Handler.
type Option func(*Handler)

// WithTransport replaces the upstream round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(h *Handler) { h.transport = rt }
}

// WithTimeout bounds each upstream exchange, including the streamed body.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// WithMetrics records forwarded requests.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithHooks emits agent_request and agent_response events.
func WithHooks(hm *hooks.Manager) Option {
	return func(h *Handler) { h.hooks = hm }
}

// New builds a Handler bound to reg. defaultAgent must be registered.
func New(reg *agents.Registry, defaultAgent string, log *logging.Logger, opts ...Option) (*Handler, error) {
	if _, ok := reg.Lookup(defaultAgent); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDefault, defaultAgent)
	}

	h := &Handler{
		registry:     reg,
		defaultAgent: defaultAgent,
		transport:    http.DefaultTransport,
		log:          log.Sub("runtime"),
		proxies:      make(map[string]*httputil.ReverseProxy, reg.Len()),
	}
	for _, opt := range opts {
		opt(h)
	}

	for _, name := range reg.Names() {
		a, _ := reg.Lookup(name)
		h.proxies[name] = h.newProxy(a)
	}
	return h, nil
}

// DefaultAgent returns the agent used by the bare endpoint.
func (h *Handler) DefaultAgent() string { return h.defaultAgent }

// Routes mounts the runtime endpoints on r. The caller decides the prefix,
// normally via r.Route(endpoint, h.Routes).
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.handleDefault)
	r.Get("/info", h.handleInfo)
	r.Post("/agents/{agent}", h.handleNamed)
}

func (h *Handler) handleDefault(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, h.defaultAgent)
}

func (h *Handler) handleNamed(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "agent")
	if _, ok := h.proxies[name]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "unknown agent",
			"agent": name,
		})
		return
	}
	h.forward(w, r, name)
}

// InfoResponse lists the agents reachable through the endpoint.
type InfoResponse struct {
	Agents  []agents.Info `json:"agents"`
	Default string        `json:"default"`
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		Agents:  h.registry.Info(),
		Default: h.defaultAgent,
	})
}

type outcomeKey struct{}

// outcome collects what happened to one forwarded request. status is what
// the client was sent: the upstream status, or 502 when the agent could not
// be reached.
type outcome struct {
	status      int
	unreachable bool
	aborted     bool
}

func (o *outcome) result() string {
	switch {
	case o.unreachable:
		return "unreachable"
	case o.aborted:
		return "aborted"
	default:
		return "complete"
	}
}

// metricStatus is the status used for the metrics class; failures to reach
// the agent are counted as "error" rather than as an upstream 5xx.
func (o *outcome) metricStatus() int {
	if o.unreachable {
		return 0
	}
	return o.status
}

func (h *Handler) forward(w http.ResponseWriter, r *http.Request, name string) {
	proxy := h.proxies[name]
	a, _ := h.registry.Lookup(name)
	reqID := middleware.GetReqID(r.Context())

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	out := &outcome{}
	ctx = context.WithValue(ctx, outcomeKey{}, out)

	h.log.Debug().
		Str("agent", name).
		Str("target", a.URL.String()).
		Str("request_id", reqID).
		Msg("forwarding to agent")
	if h.hooks != nil {
		h.hooks.EmitAsync(ctx, hooks.EventAgentRequest, map[string]any{
			"agent":      name,
			"target":     a.URL.String(),
			"request_id": reqID,
		})
	}

	start := time.Now()
	h.metrics.AgentStart()
	// A stream cut after the headers were sent (timeout or client gone)
	// makes ReverseProxy panic with http.ErrAbortHandler; the exchange is
	// still recorded before the panic continues to the server.
	defer func() {
		v := recover()
		out.aborted = v != nil
		h.finish(ctx, name, reqID, out, time.Since(start))
		if v != nil {
			panic(v)
		}
	}()
	proxy.ServeHTTP(w, r.WithContext(ctx))
}

func (h *Handler) finish(ctx context.Context, name, reqID string, out *outcome, elapsed time.Duration) {
	h.metrics.AgentEnd(name, out.metricStatus(), elapsed)

	ev := h.log.Info()
	if out.aborted {
		ev = h.log.Warn()
	}
	ev.Str("agent", name).
		Int("status", out.status).
		Str("result", out.result()).
		Dur("duration", elapsed).
		Str("request_id", reqID).
		Msg("agent exchange finished")
	if h.hooks != nil {
		h.hooks.EmitAsync(ctx, hooks.EventAgentResponse, map[string]any{
			"agent":       name,
			"status":      out.status,
			"result":      out.result(),
			"duration_ms": elapsed.Milliseconds(),
			"request_id":  reqID,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
