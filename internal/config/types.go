package config

import "time"

// Config is the root configuration for agentchat.
type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway,omitempty"`
	Runtime  RuntimeConfig  `yaml:"runtime,omitempty"`
	Agents   []AgentEntry   `yaml:"agents,omitempty"`
	Chat     ChatConfig     `yaml:"chat,omitempty"`
	Facility FacilityConfig `yaml:"facility,omitempty"`
	MCP      MCPConfig      `yaml:"mcp,omitempty"`
	Metrics  MetricsConfig  `yaml:"metrics,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Hooks    HooksConfig    `yaml:"hooks,omitempty"`
}

// GatewayConfig controls the HTTP server.
type GatewayConfig struct {
	Port           int        `yaml:"port,omitempty"`
	Bind           string     `yaml:"bind,omitempty"` // "auto" | "lan" | "loopback" | "custom"
	CustomBindHost string     `yaml:"customBindHost,omitempty"`
	TLS            GatewayTLS `yaml:"tls,omitempty"`
	AllowedOrigins []string   `yaml:"allowedOrigins,omitempty"`
}

// GatewayTLS configures TLS for the gateway.
type GatewayTLS struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// RuntimeConfig describes the chat runtime proxy route.
type RuntimeConfig struct {
	// Endpoint is the local path the chat page posts to.
	Endpoint string `yaml:"endpoint,omitempty"`
	// Agent names the registered agent the page talks to.
	Agent string `yaml:"agent,omitempty"`
	// RemoteBaseURL is the origin used by the alternate page variant.
	RemoteBaseURL string        `yaml:"remoteBaseUrl,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty"` // 0 = no upstream deadline
}

// AgentEntry registers a remote agent under a short name.
type AgentEntry struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Description string `yaml:"description,omitempty"`
}

// ChatConfig holds the static configuration rendered into the chat page.
type ChatConfig struct {
	Title       string            `yaml:"title,omitempty"`
	Initial     string            `yaml:"initial,omitempty"` // markdown
	Placeholder string            `yaml:"placeholder,omitempty"`
	Background  string            `yaml:"background,omitempty"`
	Suggestions []SuggestionEntry `yaml:"suggestions,omitempty"`
}

// SuggestionEntry is a clickable prompt shown before the first message.
type SuggestionEntry struct {
	Title   string `yaml:"title"`
	Message string `yaml:"message"`
}

// FacilityConfig configures the NPPES / CMS lookup tools.
type FacilityConfig struct {
	NPPESURL   string        `yaml:"nppesUrl,omitempty"`
	CMSDataURL string        `yaml:"cmsDataUrl,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
	Cache      CacheConfig   `yaml:"cache,omitempty"`
}

// CacheConfig selects the backing store for downloaded datasets.
type CacheConfig struct {
	Store    string        `yaml:"store,omitempty"` // "memory" | "sqlite" | "redis"
	RedisURL string        `yaml:"redisUrl,omitempty"`
	TTL      time.Duration `yaml:"ttl,omitempty"`
}

// MCPConfig controls the MCP endpoint exposing the facility tools.
type MCPConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}

// HooksConfig defines shell commands run on lifecycle events.
type HooksConfig struct {
	GatewayStart   []HookEntry `yaml:"gatewayStart,omitempty"`
	GatewayStop    []HookEntry `yaml:"gatewayStop,omitempty"`
	AgentRequest   []HookEntry `yaml:"agentRequest,omitempty"`
	AgentResponse  []HookEntry `yaml:"agentResponse,omitempty"`
	FacilityLookup []HookEntry `yaml:"facilityLookup,omitempty"`
}

// HookEntry defines a single hook action.
type HookEntry struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout,omitempty"` // milliseconds
}
