package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandURLFields processes environment variable references in URL fields so
// deployment-specific origins and credentials can be stored as ${ENV_VAR}.
func expandURLFields(cfg *Config) {
	for i := range cfg.Agents {
		cfg.Agents[i].URL = expandEnvVars(cfg.Agents[i].URL)
	}
	cfg.Runtime.RemoteBaseURL = expandEnvVars(cfg.Runtime.RemoteBaseURL)
	cfg.Facility.Cache.RedisURL = expandEnvVars(cfg.Facility.Cache.RedisURL)
	cfg.Facility.NPPESURL = expandEnvVars(cfg.Facility.NPPESURL)
	cfg.Facility.CMSDataURL = expandEnvVars(cfg.Facility.CMSDataURL)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		cfg := Defaults()
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}
	return parse(data)
}

// DecodeRaw turns an edited raw tree back into a Config the same way Load
// would read it from disk.
func DecodeRaw(raw map[string]any) (Config, error) {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return Defaults(), err
	}
	return parse(data)
}

func parse(data []byte) (Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	applyDefaults(&cfg)
	expandURLFields(&cfg)
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	d := Defaults()
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = d.Gateway.Port
	}
	if cfg.Gateway.Bind == "" {
		cfg.Gateway.Bind = d.Gateway.Bind
	}
	if cfg.Runtime.Endpoint == "" {
		cfg.Runtime.Endpoint = d.Runtime.Endpoint
	}
	if cfg.Runtime.Agent == "" {
		cfg.Runtime.Agent = d.Runtime.Agent
	}
	if cfg.Chat.Background == "" {
		cfg.Chat.Background = d.Chat.Background
	}
	if cfg.Facility.NPPESURL == "" {
		cfg.Facility.NPPESURL = d.Facility.NPPESURL
	}
	if cfg.Facility.CMSDataURL == "" {
		cfg.Facility.CMSDataURL = d.Facility.CMSDataURL
	}
	if cfg.Facility.Timeout == 0 {
		cfg.Facility.Timeout = d.Facility.Timeout
	}
	if cfg.Facility.Cache.Store == "" {
		cfg.Facility.Cache.Store = d.Facility.Cache.Store
	}
	if cfg.Facility.Cache.TTL == 0 {
		cfg.Facility.Cache.TTL = d.Facility.Cache.TTL
	}
	if cfg.MCP.Path == "" {
		cfg.MCP.Path = d.MCP.Path
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = d.Metrics.Path
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = d.Logging.ConsoleStyle
	}
}

// applyEnvOverrides reads AGENTCHAT_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AGENTCHAT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}
	if v := os.Getenv("AGENTCHAT_BIND"); v != "" {
		cfg.Gateway.Bind = v
	}
	if v := os.Getenv("AGENTCHAT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("AGENTCHAT_REMOTE_BASE_URL"); v != "" {
		cfg.Runtime.RemoteBaseURL = v
	}
	if v := os.Getenv("AGENTCHAT_AGENT_URL"); v != "" {
		for i := range cfg.Agents {
			if cfg.Agents[i].Name == cfg.Runtime.Agent {
				cfg.Agents[i].URL = v
			}
		}
	}
	if v := os.Getenv("AGENTCHAT_REDIS_URL"); v != "" {
		cfg.Facility.Cache.RedisURL = v
		cfg.Facility.Cache.Store = "redis"
	}
}
