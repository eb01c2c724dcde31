// Package hooks dispatches agentchat lifecycle events to registered handlers.
package hooks

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/soyeahso/agentchat/internal/logging"
)

const (
	EventGatewayStart   = "gateway_start"
	EventGatewayStop    = "gateway_stop"
	EventAgentRequest   = "agent_request"
	EventAgentResponse  = "agent_response"
	EventFacilityLookup = "facility_lookup"
)

// AllEvents lists every event the server emits.
var AllEvents = []string{
	EventGatewayStart,
	EventGatewayStop,
	EventAgentRequest,
	EventAgentResponse,
	EventFacilityLookup,
}

// Payload is what a handler receives for one emitted event.
type Payload struct {
	Event string         `json:"event"`
	At    time.Time      `json:"at"`
	Data  map[string]any `json:"data,omitempty"`
}

// Handler reacts to an event. A returned error is logged and otherwise
// ignored; the remaining handlers still run.
type Handler func(ctx context.Context, p Payload) error

type registration struct {
	name string
	fn   Handler
}

// Manager keeps per-event handler lists. Safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	handlers map[string][]registration
	inflight sync.WaitGroup
	log      *logging.Logger
}

func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[string][]registration),
		log:      log.Sub("hooks"),
	}
}

// On appends handler to event. name is used in logs and by Off.
func (m *Manager) On(event, name string, handler Handler) {
	m.mu.Lock()
	m.handlers[event] = append(m.handlers[event], registration{name: name, fn: handler})
	m.mu.Unlock()
	m.log.Debug().Str("event", event).Str("handler", name).Msg("hook registered")
}

// Off drops every handler registered under name for event.
func (m *Manager) Off(event, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = slices.DeleteFunc(slices.Clone(m.handlers[event]), func(r registration) bool {
		return r.name == name
	})
}

// Emit runs the handlers for event one after another, in registration order.
func (m *Manager) Emit(ctx context.Context, event string, data map[string]any) {
	regs, p := m.prepare(event, data)
	for _, r := range regs {
		m.call(ctx, r, p)
	}
}

// EmitAsync starts every handler for event in its own goroutine and returns.
// Handlers keep running after ctx is cancelled; use Wait to drain them.
func (m *Manager) EmitAsync(ctx context.Context, event string, data map[string]any) {
	regs, p := m.prepare(event, data)
	if len(regs) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	m.inflight.Add(len(regs))
	for _, r := range regs {
		go func() {
			defer m.inflight.Done()
			m.call(ctx, r, p)
		}()
	}
}

// Wait blocks until handlers started by EmitAsync have returned or ctx ends.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) prepare(event string, data map[string]any) ([]registration, Payload) {
	m.mu.RLock()
	regs := slices.Clone(m.handlers[event])
	m.mu.RUnlock()
	return regs, Payload{Event: event, At: time.Now().UTC(), Data: data}
}

func (m *Manager) call(ctx context.Context, r registration, p Payload) {
	defer func() {
		if v := recover(); v != nil {
			m.log.Error().
				Str("event", p.Event).
				Str("handler", r.name).
				Str("panic", fmt.Sprint(v)).
				Msg("hook handler panicked")
		}
	}()
	if err := r.fn(ctx, p); err != nil {
		m.log.Warn().
			Err(err).
			Str("event", p.Event).
			Str("handler", r.name).
			Msg("hook handler failed")
	}
}

// Count reports how many handlers event has.
func (m *Manager) Count(event string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[event])
}

// Events returns the sorted names of events with at least one handler.
func (m *Manager) Events() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []string
	for event, regs := range m.handlers {
		if len(regs) > 0 {
			events = append(events, event)
		}
	}
	slices.Sort(events)
	return events
}
