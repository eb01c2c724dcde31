package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/soyeahso/agentchat/internal/config"
	"github.com/soyeahso/agentchat/internal/facility"
	"github.com/soyeahso/agentchat/internal/gateway"
	"github.com/soyeahso/agentchat/internal/hooks"
	"github.com/soyeahso/agentchat/internal/metrics"
	"github.com/soyeahso/agentchat/internal/store"
	"github.com/spf13/cobra"
)

const hookDrainTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat page and the agent proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}

			if issues := config.Validate(&cfg); len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			hookMgr := hooks.NewManager(log)
			if n := hooks.RegisterCommands(hookMgr, cfg.Hooks); n > 0 {
				log.Info().Int("hooks", n).Msg("command hooks registered")
			}

			m := metrics.New()

			if err := paths.EnsureDirs(); err != nil {
				return err
			}
			db, err := store.Open(paths.CacheDB(), log)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			svc, cacheCloser, err := facility.Open(ctx, cfg.Facility, db, log, m, facility.WithHooks(hookMgr))
			if err != nil {
				return err
			}
			defer cacheCloser.Close()

			srv, err := gateway.New(cfg, log,
				gateway.WithHooks(hookMgr),
				gateway.WithMetrics(m),
				gateway.WithFacility(svc),
			)
			if err != nil {
				return err
			}
			serveErr := srv.Start(ctx)

			drain, cancel := context.WithTimeout(context.Background(), hookDrainTimeout)
			defer cancel()
			if err := hookMgr.Wait(drain); err != nil {
				log.Warn().Err(err).Msg("hook handlers still running at exit")
			}
			return serveErr
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (auto, lan, loopback, custom)")

	return cmd
}

// loadConfig reads the config file named by the resolved paths.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, fmt.Errorf("loading %s: %w", paths.Config, err)
	}
	return cfg, nil
}
