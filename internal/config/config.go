package config

import (
	"fmt"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

const (
	DefaultPort       = 3000
	DefaultEndpoint   = "/api/copilotkit"
	DefaultAgentName  = "my_agent"
	DefaultAgentURL   = "https://hlh-agent.onrender.com/"
	DefaultNPPESURL   = "https://npiregistry.cms.hhs.gov/api/"
	DefaultCMSDataURL = "https://data.cms.gov/provider-data/sites/default/files/resources/893c372430d9d71a1c52737d01239d47_1753409109/Hospital_General_Information.csv"
)

// DefaultSuggestions are shown before the first message. Titles equal messages.
func DefaultSuggestions() []SuggestionEntry {
	return []SuggestionEntry{
		{
			Title:   "Find the CCN for Massachusetts General Hospital",
			Message: "Find the CCN for Massachusetts General Hospital",
		},
		{
			Title:   "Show the facility profile and related NPIs for NPI 1912971421",
			Message: "Show the facility profile and related NPIs for NPI 1912971421",
		},
	}
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Gateway: GatewayConfig{
			Port: DefaultPort,
			Bind: "loopback",
		},
		Runtime: RuntimeConfig{
			Endpoint: DefaultEndpoint,
			Agent:    DefaultAgentName,
		},
		Agents: []AgentEntry{
			{
				Name:        DefaultAgentName,
				URL:         DefaultAgentURL,
				Description: "Hospital NPI agent: facility types, related NPIs and CCN lookups",
			},
		},
		Chat: ChatConfig{
			Title:       "Hospital NPI Assistant",
			Initial:     "Hi! Give me a **10-digit NPI** or a hospital name and I can classify the facility, find related NPIs, or look up its CCN.",
			Placeholder: "Type a message...",
			Background:  "#6366f1",
			Suggestions: DefaultSuggestions(),
		},
		Facility: FacilityConfig{
			NPPESURL:   DefaultNPPESURL,
			CMSDataURL: DefaultCMSDataURL,
			Timeout:    30 * time.Second,
			Cache: CacheConfig{
				Store: "memory",
				TTL:   24 * time.Hour,
			},
		},
		MCP: MCPConfig{
			Path: "/mcp",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
