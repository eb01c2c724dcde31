// Package metrics exposes Prometheus collectors for the gateway, the agent
// proxy and the facility tools.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several servers (and tests) can coexist
// in one process. A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	buildInfo       *prometheus.GaugeVec
	httpRequests    *prometheus.CounterVec
	agentRequests   *prometheus.CounterVec
	agentDuration   *prometheus.HistogramVec
	agentInflight   prometheus.Gauge
	facilityLookups *prometheus.CounterVec
	cacheResults    *prometheus.CounterVec
}

// New creates the collectors and registers them along with the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		buildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agentchat_build_info",
				Help: "Build information for the agentchat server",
			},
			[]string{"version", "commit", "date"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentchat_http_requests_total",
				Help: "HTTP requests served, by method and status code",
			},
			[]string{"method", "code"},
		),
		agentRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentchat_agent_requests_total",
				Help: "Requests forwarded to remote agents, by agent and status class",
			},
			[]string{"agent", "status"},
		),
		agentDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentchat_agent_request_duration_seconds",
				Help:    "Time until the remote agent response finished streaming",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"agent"},
		),
		agentInflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "agentchat_agent_requests_inflight",
				Help: "Agent requests currently being proxied",
			},
		),
		facilityLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentchat_facility_lookups_total",
				Help: "Facility tool invocations, by tool and result status",
			},
			[]string{"tool", "status"},
		),
		cacheResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentchat_cache_requests_total",
				Help: "Dataset cache lookups, by result",
			},
			[]string{"result"},
		),
	}
	m.reg.MustRegister(
		m.buildInfo,
		m.httpRequests,
		m.agentRequests,
		m.agentDuration,
		m.agentInflight,
		m.facilityLookups,
		m.cacheResults,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// SetBuildInfo records the running build.
func (m *Metrics) SetBuildInfo(version, commit, date string) {
	if m == nil {
		return
	}
	m.buildInfo.WithLabelValues(version, commit, date).Set(1)
}

// RecordHTTP counts one served HTTP request.
func (m *Metrics) RecordHTTP(method string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

// AgentStart marks an agent request as in flight.
func (m *Metrics) AgentStart() {
	if m == nil {
		return
	}
	m.agentInflight.Inc()
}

// AgentEnd records the outcome of a proxied agent request. A status of 0
// means the upstream could not be reached.
func (m *Metrics) AgentEnd(agent string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.agentInflight.Dec()
	m.agentRequests.WithLabelValues(agent, StatusClass(status)).Inc()
	m.agentDuration.WithLabelValues(agent).Observe(elapsed.Seconds())
}

// RecordFacility counts one facility tool call.
func (m *Metrics) RecordFacility(tool, status string) {
	if m == nil {
		return
	}
	m.facilityLookups.WithLabelValues(tool, status).Inc()
}

// RecordCache counts a dataset cache hit or miss.
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheResults.WithLabelValues(result).Inc()
}

// StatusClass maps an HTTP status to "2xx".."5xx", or "error" for 0.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
