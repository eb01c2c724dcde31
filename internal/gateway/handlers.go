package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/soyeahso/agentchat/internal/version"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Agent    string `json:"agent"`
	Agents   int    `json:"agents"`
	Endpoint string `json:"endpoint"`
	MCP      bool   `json:"mcp"`
}

// handleHealth reports liveness. It never contacts an agent.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  version.Version,
		Agent:    s.runtime.DefaultAgent(),
		Agents:   s.registry.Len(),
		Endpoint: s.cfg.Runtime.Endpoint,
		MCP:      s.cfg.MCP.Enabled && s.facility != nil,
	})
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
