package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issuePaths(issues []ValidationIssue) []string {
	paths := make([]string, 0, len(issues))
	for _, i := range issues {
		paths = append(paths, i.Path)
	}
	return paths
}

func TestValidateBadPort(t *testing.T) {
	cfg := Defaults()
	cfg.Gateway.Port = 70000
	assert.Contains(t, issuePaths(Validate(&cfg)), "gateway.port")
}

func TestValidateBadBind(t *testing.T) {
	cfg := Defaults()
	cfg.Gateway.Bind = "everywhere"
	assert.Contains(t, issuePaths(Validate(&cfg)), "gateway.bind")
}

func TestValidateTLSNeedsCert(t *testing.T) {
	cfg := Defaults()
	cfg.Gateway.TLS.Enabled = true
	assert.Contains(t, issuePaths(Validate(&cfg)), "gateway.tls")

	cfg.Gateway.TLS.CertPath = "/tmp/cert.pem"
	cfg.Gateway.TLS.KeyPath = "/tmp/key.pem"
	assert.NotContains(t, issuePaths(Validate(&cfg)), "gateway.tls")
}

func TestValidateEndpointMustBeAbsolute(t *testing.T) {
	cfg := Defaults()
	cfg.Runtime.Endpoint = "api/copilotkit"
	assert.Contains(t, issuePaths(Validate(&cfg)), "runtime.endpoint")
}

func TestValidateAgentMustBeRegistered(t *testing.T) {
	cfg := Defaults()
	cfg.Runtime.Agent = "someone_else"
	issues := Validate(&cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, "runtime.agent", issues[0].Path)
	assert.Contains(t, issues[0].Message, "someone_else")
}

func TestValidateAgentEntries(t *testing.T) {
	cfg := Defaults()
	cfg.Agents = append(cfg.Agents,
		AgentEntry{Name: "my_agent", URL: "https://dup.example.com/"},
		AgentEntry{Name: "", URL: "relative/path"},
	)
	paths := issuePaths(Validate(&cfg))
	assert.Contains(t, paths, "agents[1].name")
	assert.Contains(t, paths, "agents[2].name")
	assert.Contains(t, paths, "agents[2].url")
}

func TestValidateNoAgents(t *testing.T) {
	cfg := Defaults()
	cfg.Agents = nil
	paths := issuePaths(Validate(&cfg))
	assert.Contains(t, paths, "agents")
	assert.NotContains(t, paths, "runtime.agent")
}

func TestValidateRemoteBaseURL(t *testing.T) {
	cfg := Defaults()
	cfg.Runtime.RemoteBaseURL = "ftp://example.com"
	assert.Contains(t, issuePaths(Validate(&cfg)), "runtime.remoteBaseUrl")

	cfg.Runtime.RemoteBaseURL = "https://example.com"
	assert.Empty(t, Validate(&cfg))
}

func TestValidateSuggestions(t *testing.T) {
	cfg := Defaults()
	cfg.Chat.Suggestions = []SuggestionEntry{{Title: " ", Message: ""}}
	paths := issuePaths(Validate(&cfg))
	assert.Contains(t, paths, "chat.suggestions[0].title")
	assert.Contains(t, paths, "chat.suggestions[0].message")
}

func TestValidateCacheStore(t *testing.T) {
	cfg := Defaults()
	cfg.Facility.Cache.Store = "memcached"
	assert.Contains(t, issuePaths(Validate(&cfg)), "facility.cache.store")

	cfg.Facility.Cache.Store = "redis"
	assert.Contains(t, issuePaths(Validate(&cfg)), "facility.cache.redisUrl")

	cfg.Facility.Cache.RedisURL = "redis://localhost:6379"
	assert.Empty(t, Validate(&cfg))
}

func TestValidatePaths(t *testing.T) {
	cfg := Defaults()
	cfg.MCP.Enabled = true
	cfg.MCP.Path = "mcp"
	cfg.Metrics.Path = "metrics"
	paths := issuePaths(Validate(&cfg))
	assert.Contains(t, paths, "mcp.path")
	assert.Contains(t, paths, "metrics.path")
}

func TestValidateLogging(t *testing.T) {
	cfg := Defaults()
	cfg.Logging.Level = "verbose"
	cfg.Logging.ConsoleStyle = "fancy"
	paths := issuePaths(Validate(&cfg))
	assert.Contains(t, paths, "logging.level")
	assert.Contains(t, paths, "logging.consoleStyle")
}

func TestValidationIssueString(t *testing.T) {
	v := ValidationIssue{Path: "gateway.port", Message: "bad"}
	assert.Equal(t, "gateway.port: bad", v.String())
}
