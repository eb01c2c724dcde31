// Package mcpserver exposes the facility lookups as Model Context Protocol
// tools, over streamable HTTP inside the gateway or over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/soyeahso/agentchat/internal/facility"
	"github.com/soyeahso/agentchat/internal/logging"
	"github.com/soyeahso/agentchat/internal/version"
)

const serverName = "agentchat-facility"

// Server wraps an MCP server with the facility tools registered.
type Server struct {
	mcp *server.MCPServer
	svc *facility.Service
	log *logging.Logger
}

// New registers the facility tools backed by svc.
func New(svc *facility.Service, log *logging.Logger) *Server {
	s := &Server{
		mcp: server.NewMCPServer(serverName, version.Version, server.WithToolCapabilities(false)),
		svc: svc,
		log: log.Sub("mcp"),
	}

	npiArg := mcp.WithString("npi", mcp.Required(), mcp.Description("10-digit National Provider Identifier"))

	s.mcp.AddTool(mcp.NewTool(facility.ToolFacilityProfile,
		mcp.WithDescription("Classify a facility by NPI and list NPIs registered under the same organization."),
		npiArg,
	), s.npiTool(svc.Profile))

	s.mcp.AddTool(mcp.NewTool(facility.ToolFacilityType,
		mcp.WithDescription("Classify a facility (acute care, critical access, SNF, oncology, ...) from its NPPES taxonomies."),
		npiArg,
	), s.npiTool(svc.FacilityType))

	s.mcp.AddTool(mcp.NewTool(facility.ToolRelatedNPIs,
		mcp.WithDescription("Find NPIs sharing the facility's legal business name or parent organization."),
		npiArg,
	), s.npiTool(svc.RelatedNPIs))

	s.mcp.AddTool(mcp.NewTool(facility.ToolCCNByName,
		mcp.WithDescription("Search the CMS Hospital General Information file for a hospital's CMS Certification Number."),
		mcp.WithString("hospital_name", mcp.Required(), mcp.Description("Hospital name, e.g. Massachusetts General Hospital")),
		mcp.WithString("state", mcp.Description("Optional two-letter state code")),
	), s.ccnTool)

	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// Handler serves the tools over streamable HTTP.
func (s *Server) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp)
}

// ServeStdio serves the tools on stdin/stdout until EOF.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) npiTool(lookup func(context.Context, string) facility.Response) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		npi, err := req.RequireString("npi")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return s.result(req.Params.Name, lookup(ctx, npi))
	}
}

func (s *Server) ccnTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("hospital_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	state := req.GetString("state", "")
	return s.result(req.Params.Name, s.svc.CCNByName(ctx, name, state))
}

func (s *Server) result(tool string, r facility.Response) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("tool", tool).Str("status", r.Status).Msg("tool call")
	res := mcp.NewToolResultText(string(body))
	res.IsError = !r.OK()
	return res, nil
}
