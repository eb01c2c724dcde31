package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	// Gateway validation
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		add("gateway.port", "port must be 0-65535, got %d", cfg.Gateway.Port)
	}

	validBinds := []string{"auto", "lan", "loopback", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		add("gateway.bind", "must be one of %v, got %q", validBinds, cfg.Gateway.Bind)
	}

	if cfg.Gateway.TLS.Enabled && (cfg.Gateway.TLS.CertPath == "" || cfg.Gateway.TLS.KeyPath == "") {
		add("gateway.tls", "certPath and keyPath are required when TLS is enabled")
	}

	// Runtime validation
	if !strings.HasPrefix(cfg.Runtime.Endpoint, "/") {
		add("runtime.endpoint", "must be an absolute path, got %q", cfg.Runtime.Endpoint)
	}
	if cfg.Runtime.RemoteBaseURL != "" && !isHTTPURL(cfg.Runtime.RemoteBaseURL) {
		add("runtime.remoteBaseUrl", "must be an absolute http(s) URL, got %q", cfg.Runtime.RemoteBaseURL)
	}
	if cfg.Runtime.Timeout < 0 {
		add("runtime.timeout", "must not be negative")
	}

	// Agents validation. The page's agent must be registered server-side.
	if len(cfg.Agents) == 0 {
		add("agents", "at least one agent is required")
	}
	seen := make(map[string]bool, len(cfg.Agents))
	for i, a := range cfg.Agents {
		path := fmt.Sprintf("agents[%d]", i)
		if a.Name == "" {
			add(path+".name", "name is required")
		} else if seen[a.Name] {
			add(path+".name", "duplicate agent name %q", a.Name)
		}
		seen[a.Name] = true
		if !isHTTPURL(a.URL) {
			add(path+".url", "must be an absolute http(s) URL, got %q", a.URL)
		}
	}
	if cfg.Runtime.Agent == "" {
		add("runtime.agent", "agent name is required")
	} else if len(cfg.Agents) > 0 && !seen[cfg.Runtime.Agent] {
		add("runtime.agent", "agent %q is not registered in agents", cfg.Runtime.Agent)
	}

	// Chat validation
	for i, s := range cfg.Chat.Suggestions {
		if strings.TrimSpace(s.Title) == "" {
			add(fmt.Sprintf("chat.suggestions[%d].title", i), "title is required")
		}
		if strings.TrimSpace(s.Message) == "" {
			add(fmt.Sprintf("chat.suggestions[%d].message", i), "message is required")
		}
	}

	// Facility validation
	validStores := []string{"memory", "sqlite", "redis"}
	if cfg.Facility.Cache.Store != "" && !slices.Contains(validStores, cfg.Facility.Cache.Store) {
		add("facility.cache.store", "must be one of %v, got %q", validStores, cfg.Facility.Cache.Store)
	}
	if cfg.Facility.Cache.Store == "redis" && cfg.Facility.Cache.RedisURL == "" {
		add("facility.cache.redisUrl", "required when store is redis")
	}
	if cfg.Facility.NPPESURL != "" && !isHTTPURL(cfg.Facility.NPPESURL) {
		add("facility.nppesUrl", "must be an absolute http(s) URL, got %q", cfg.Facility.NPPESURL)
	}
	if cfg.Facility.CMSDataURL != "" && !isHTTPURL(cfg.Facility.CMSDataURL) {
		add("facility.cmsDataUrl", "must be an absolute http(s) URL, got %q", cfg.Facility.CMSDataURL)
	}

	if cfg.MCP.Enabled && !strings.HasPrefix(cfg.MCP.Path, "/") {
		add("mcp.path", "must be an absolute path, got %q", cfg.MCP.Path)
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		add("metrics.path", "must be an absolute path, got %q", cfg.Metrics.Path)
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		add("logging.level", "must be one of %v, got %q", validLogLevels, cfg.Logging.Level)
	}

	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		add("logging.consoleStyle", "must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle)
	}

	return issues
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
