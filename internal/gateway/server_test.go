package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/soyeahso/agentchat/internal/config"
	"github.com/soyeahso/agentchat/internal/facility"
	"github.com/soyeahso/agentchat/internal/hooks"
	"github.com/soyeahso/agentchat/internal/logging"
	"github.com/soyeahso/agentchat/internal/metrics"
	"github.com/soyeahso/agentchat/internal/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const runInput = `{"threadId":"t1","runId":"r1","messages":[{"id":"m1","role":"user","content":"hello"}],"state":{},"tools":[],"context":[],"forwardedProps":{}}`

// upstream is a fake remote agent counting the requests it receives.
type upstream struct {
	*httptest.Server
	calls atomic.Int32
	mu    sync.Mutex
	last  *http.Request
	body  string
}

func newUpstream(t *testing.T, h http.HandlerFunc) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		u.mu.Lock()
		u.last, u.body = r, string(b)
		u.mu.Unlock()
		u.calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(u.Close)
	return u
}

func sseReply(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	fmt.Fprint(w, "data: {\"type\":\"RUN_STARTED\"}\n\n")
	fmt.Fprint(w, "data: {\"type\":\"RUN_FINISHED\"}\n\n")
}

func testConfig(agentURL string) config.Config {
	cfg := config.Defaults()
	cfg.Agents[0].URL = agentURL
	return cfg
}

func testServer(t *testing.T, cfg config.Config, opts ...ServerOption) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := New(cfg, logging.New(nil, "silent"), opts...)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	return rr.Body.String()
}

func TestHealthEndpoint(t *testing.T) {
	agent := newUpstream(t, sseReply)
	_, ts := testServer(t, testConfig(agent.URL))

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "my_agent", health.Agent)
	assert.Equal(t, 1, health.Agents)
	assert.Equal(t, "/api/copilotkit", health.Endpoint)
	assert.False(t, health.MCP)
	assert.Zero(t, agent.calls.Load())
}

func TestNotFoundEndpoint(t *testing.T) {
	agent := newUpstream(t, sseReply)
	_, ts := testServer(t, testConfig(agent.URL))

	resp, err := http.Get(ts.URL + "/nonexistent")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "/nonexistent", body["path"])
}

func TestPageLoadMakesNoUpstreamCall(t *testing.T) {
	agent := newUpstream(t, sseReply)
	_, ts := testServer(t, testConfig(agent.URL))

	for _, path := range []string{"/", "/static/chat.js", "/static/chat.css", "/api/chat/config", "/api/copilotkit/info"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err, path)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
	assert.Zero(t, agent.calls.Load())
}

func TestPageTargetsDefaultAgent(t *testing.T) {
	agent := newUpstream(t, sseReply)
	_, ts := testServer(t, testConfig(agent.URL))

	resp, err := http.Get(ts.URL + "/api/chat/config")
	require.NoError(t, err)
	defer resp.Body.Close()

	var page web.PageConfig
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, "my_agent", page.Agent)
	assert.Equal(t, "/api/copilotkit", page.RuntimeURL)
	require.Len(t, page.Suggestions, 2)
	for _, s := range page.Suggestions {
		assert.Equal(t, s.Title, s.Message)
	}
}

func TestMessageForwardedOnce(t *testing.T) {
	agent := newUpstream(t, sseReply)
	_, ts := testServer(t, testConfig(agent.URL+"/agent"))

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/copilotkit", strings.NewReader(runInput))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "RUN_FINISHED")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	require.Equal(t, int32(1), agent.calls.Load())
	agent.mu.Lock()
	defer agent.mu.Unlock()
	assert.Equal(t, http.MethodPost, agent.last.Method)
	assert.Equal(t, "/agent", agent.last.URL.Path)
	assert.Equal(t, runInput, agent.body)
	assert.Equal(t, "application/json", agent.last.Header.Get("Content-Type"))
}

func TestStreamReachesClientBeforeUpstreamFinishes(t *testing.T) {
	release := make(chan struct{})
	agent := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"TEXT_MESSAGE_CONTENT\",\"delta\":\"Hel\"}\n\n")
		w.(http.Flusher).Flush()
		<-release
		fmt.Fprint(w, "data: {\"type\":\"RUN_FINISHED\"}\n\n")
	})
	defer close(release)
	_, ts := testServer(t, testConfig(agent.URL))

	resp, err := http.Post(ts.URL+"/api/copilotkit", "application/json", strings.NewReader(runInput))
	require.NoError(t, err)
	defer resp.Body.Close()

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, "Hel")
}

func TestUpstreamUnreachable(t *testing.T) {
	agent := newUpstream(t, sseReply)
	agent.Close()
	m := metrics.New()
	_, ts := testServer(t, testConfig(agent.URL), WithMetrics(m))

	resp, err := http.Post(ts.URL+"/api/copilotkit", "application/json", strings.NewReader(runInput))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, scrape(t, m), `agentchat_agent_requests_total{agent="my_agent",status="error"} 1`)
}

func TestMetricsEndpoint(t *testing.T) {
	agent := newUpstream(t, sseReply)
	_, ts := testServer(t, testConfig(agent.URL))

	resp, err := http.Post(ts.URL+"/api/copilotkit", "application/json", strings.NewReader(runInput))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Contains(t, string(body), `agentchat_agent_requests_total{agent="my_agent",status="2xx"} 1`)
	assert.Contains(t, string(body), `agentchat_http_requests_total{code="200",method="POST"} 1`)
	assert.Contains(t, string(body), "agentchat_build_info")
}

func TestMetricsDisabled(t *testing.T) {
	agent := newUpstream(t, sseReply)
	cfg := testConfig(agent.URL)
	cfg.Metrics.Enabled = false
	_, ts := testServer(t, cfg)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRemoteVariant(t *testing.T) {
	agent := newUpstream(t, sseReply)
	cfg := testConfig(agent.URL)

	_, ts := testServer(t, cfg)
	resp, err := http.Get(ts.URL + "/remote")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cfg.Runtime.RemoteBaseURL = "https://chat.example.com/"
	_, ts = testServer(t, cfg)
	resp, err = http.Get(ts.URL + "/api/chat/config?variant=remote")
	require.NoError(t, err)
	defer resp.Body.Close()

	var page web.PageConfig
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, "https://chat.example.com/api/copilotkit", page.RuntimeURL)
}

func TestCORSConfigured(t *testing.T) {
	agent := newUpstream(t, sseReply)
	cfg := testConfig(agent.URL)
	cfg.Gateway.AllowedOrigins = []string{"https://chat.example.com"}
	_, ts := testServer(t, cfg)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/copilotkit", nil)
	req.Header.Set("Origin", "https://chat.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "https://chat.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Zero(t, agent.calls.Load())
}

func TestMCPEndpoint(t *testing.T) {
	agent := newUpstream(t, sseReply)
	cfg := testConfig(agent.URL)
	cfg.MCP.Enabled = true
	log := logging.New(nil, "silent")
	svc := facility.NewService(nil, nil, log)
	_, ts := testServer(t, cfg, WithFacility(svc))

	c, err := client.NewStreamableHttpClient(ts.URL + "/mcp")
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	init := mcp.InitializeRequest{}
	init.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	init.Params.ClientInfo = mcp.Implementation{Name: "test", Version: "1.0"}
	_, err = c.Initialize(ctx, init)
	require.NoError(t, err)

	tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)
	assert.Len(t, tools.Tools, 4)
}

func TestMCPDisabledWithoutFacility(t *testing.T) {
	agent := newUpstream(t, sseReply)
	cfg := testConfig(agent.URL)
	cfg.MCP.Enabled = true
	_, ts := testServer(t, cfg)

	resp, err := http.Post(ts.URL+"/mcp", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNewRejectsBadAgents(t *testing.T) {
	log := logging.New(nil, "silent")

	cfg := testConfig("not a url")
	_, err := New(cfg, log)
	assert.Error(t, err)

	cfg = testConfig("http://127.0.0.1:1")
	cfg.Runtime.Agent = "missing"
	_, err = New(cfg, log)
	assert.Error(t, err)
}

func TestResolveBindAddr(t *testing.T) {
	tests := []struct {
		bind string
		host string
		port int
		want string
	}{
		{"loopback", "", 3000, "127.0.0.1:3000"},
		{"lan", "", 9999, "0.0.0.0:9999"},
		{"auto", "", 8080, "0.0.0.0:8080"},
		{"custom", "", 3000, "0.0.0.0:3000"},
		{"custom", "10.0.0.5", 3000, "10.0.0.5:3000"},
		{"custom", "::1", 3000, "[::1]:3000"},
		{"unknown", "", 5000, "127.0.0.1:5000"},
	}

	for _, tt := range tests {
		t.Run(tt.bind+tt.host, func(t *testing.T) {
			addr := resolveBindAddr(config.GatewayConfig{Bind: tt.bind, CustomBindHost: tt.host, Port: tt.port})
			assert.Equal(t, tt.want, addr)
		})
	}
}

func TestServerStart(t *testing.T) {
	agent := newUpstream(t, sseReply)
	cfg := testConfig(agent.URL)
	cfg.Gateway.Port = 0 // let OS pick a port

	log := logging.New(nil, "silent")
	hm := hooks.NewManager(log)
	events := make(chan string, 2)
	record := func(_ context.Context, p hooks.Payload) error {
		events <- p.Event
		return nil
	}
	hm.On(hooks.EventGatewayStart, "test", record)
	hm.On(hooks.EventGatewayStop, "test", record)

	srv, err := New(cfg, log, WithHooks(hm))
	require.NoError(t, err)
	assert.Empty(t, srv.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case ev := <-events:
		assert.Equal(t, hooks.EventGatewayStart, ev)
	case <-time.After(5 * time.Second):
		t.Fatal("gateway did not start")
	}

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Positive(t, srv.Uptime())

	cancel()
	assert.NoError(t, <-errCh)
	assert.Equal(t, hooks.EventGatewayStop, <-events)
	assert.Zero(t, agent.calls.Load())
}
