package cli

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/soyeahso/agentchat/internal/config"
	"github.com/soyeahso/agentchat/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show agentchat status and configuration summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "agentchat %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Fprintf(out, "Config:   %s\n", paths.Config)
			fmt.Fprintf(out, "Data:     %s\n", paths.Data)
			fmt.Fprintf(out, "Logs:     %s\n", paths.Logs)
			fmt.Fprintln(out)

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Fprintf(out, "Config:   error loading: %v\n", err)
				return nil
			}

			fmt.Fprintf(out, "Gateway:  port=%d bind=%s tls=%v\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, cfg.Gateway.TLS.Enabled)
			fmt.Fprintf(out, "Runtime:  endpoint=%s agent=%s\n", cfg.Runtime.Endpoint, cfg.Runtime.Agent)
			if cfg.Runtime.RemoteBaseURL != "" {
				fmt.Fprintf(out, "Remote:   %s%s\n", cfg.Runtime.RemoteBaseURL, cfg.Runtime.Endpoint)
			}
			for _, a := range cfg.Agents {
				fmt.Fprintf(out, "Agent:    %s -> %s\n", a.Name, a.URL)
			}
			fmt.Fprintf(out, "Facility: cache=%s ttl=%s\n", cfg.Facility.Cache.Store, cfg.Facility.Cache.TTL)
			if cfg.MCP.Enabled {
				fmt.Fprintf(out, "MCP:      %s\n", cfg.MCP.Path)
			}
			if cfg.Metrics.Enabled {
				fmt.Fprintf(out, "Metrics:  %s\n", cfg.Metrics.Path)
			}

			fmt.Fprintf(out, "Server:   %s\n", checkGateway(cfg))

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}

// checkGateway asks a locally running gateway for its health. It only
// contacts this process's own server, never an agent.
func checkGateway(cfg config.Config) string {
	scheme := "http"
	if cfg.Gateway.TLS.Enabled {
		scheme = "https"
	}
	host := "127.0.0.1"
	if cfg.Gateway.Bind == "custom" && cfg.Gateway.CustomBindHost != "" {
		host = cfg.Gateway.CustomBindHost
	}
	url := scheme + "://" + net.JoinHostPort(host, strconv.Itoa(cfg.Gateway.Port)) + "/health"

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return "not running"
	}
	defer resp.Body.Close()

	var health struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil || health.Status != "ok" {
		return fmt.Sprintf("unhealthy (HTTP %d)", resp.StatusCode)
	}
	return fmt.Sprintf("running (version %s)", health.Version)
}
