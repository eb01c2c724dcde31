// Package agents holds the immutable name → URL map of remote agents.
package agents

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/soyeahso/agentchat/internal/config"
)

// Agent is a remote conversational backend reachable over HTTP.
type Agent struct {
	Name        string
	URL         *url.URL
	Description string
}

// Info is the public description of an agent.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Registry maps agent names to their endpoints. It is built once and never
// mutated, so it is safe for concurrent use without locking.
type Registry struct {
	agents map[string]Agent
	names  []string
}

// New builds a Registry from config entries.
func New(entries []config.AgentEntry) (*Registry, error) {
	r := &Registry{agents: make(map[string]Agent, len(entries))}
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("agents[%d]: name is required", i)
		}
		if _, dup := r.agents[e.Name]; dup {
			return nil, fmt.Errorf("agents[%d]: duplicate agent name %q", i, e.Name)
		}
		u, err := url.Parse(e.URL)
		if err != nil {
			return nil, fmt.Errorf("agent %q: invalid url: %w", e.Name, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("agent %q: url must be absolute http(s), got %q", e.Name, e.URL)
		}
		r.agents[e.Name] = Agent{Name: e.Name, URL: u, Description: e.Description}
		r.names = append(r.names, e.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Lookup returns the agent registered under name.
func (r *Registry) Lookup(name string) (Agent, bool) {
	a, ok := r.agents[name]
	return a, ok
}

// Names returns the registered agent names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Info describes every agent, sorted by name.
func (r *Registry) Info() []Info {
	out := make([]Info, 0, len(r.names))
	for _, n := range r.names {
		a := r.agents[n]
		out = append(out, Info{Name: a.Name, Description: a.Description})
	}
	return out
}

// Len returns the number of registered agents.
func (r *Registry) Len() int { return len(r.agents) }
