package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/soyeahso/agentchat/internal/config"
)

const defaultCommandTimeout = 10 * time.Second

// CommandHandler returns a Handler that runs a shell command with the JSON
// payload on stdin. The event name is exported as AGENTCHAT_HOOK_EVENT.
func CommandHandler(entry config.HookEntry) Handler {
	timeout := defaultCommandTimeout
	if entry.Timeout > 0 {
		timeout = time.Duration(entry.Timeout) * time.Millisecond
	}

	return func(ctx context.Context, p Payload) error {
		body, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding hook payload: %w", err)
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, "sh", "-c", entry.Command)
		cmd.Stdin = bytes.NewReader(body)
		cmd.Env = append(os.Environ(), "AGENTCHAT_HOOK_EVENT="+p.Event)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			msg := strings.TrimSpace(stderr.String())
			if msg != "" {
				return fmt.Errorf("hook command %q: %w: %s", entry.Command, err, msg)
			}
			return fmt.Errorf("hook command %q: %w", entry.Command, err)
		}
		return nil
	}
}

// RegisterCommands wires the configured shell hooks into m.
// Returns the number of handlers registered.
func RegisterCommands(m *Manager, cfg config.HooksConfig) int {
	groups := []struct {
		event   string
		entries []config.HookEntry
	}{
		{EventGatewayStart, cfg.GatewayStart},
		{EventGatewayStop, cfg.GatewayStop},
		{EventAgentRequest, cfg.AgentRequest},
		{EventAgentResponse, cfg.AgentResponse},
		{EventFacilityLookup, cfg.FacilityLookup},
	}

	n := 0
	for _, g := range groups {
		for i, entry := range g.entries {
			if strings.TrimSpace(entry.Command) == "" {
				continue
			}
			m.On(g.event, fmt.Sprintf("command:%s:%d", g.event, i), CommandHandler(entry))
			n++
		}
	}
	return n
}
