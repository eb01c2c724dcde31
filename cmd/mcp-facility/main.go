// Command mcp-facility serves the facility lookup tools over MCP stdio.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/soyeahso/agentchat/internal/config"
	"github.com/soyeahso/agentchat/internal/facility"
	"github.com/soyeahso/agentchat/internal/logging"
	"github.com/soyeahso/agentchat/internal/mcpserver"
	"github.com/soyeahso/agentchat/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mcp-facility: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	paths, err := config.ResolvePaths()
	if err != nil {
		return err
	}
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return err
	}

	// stdout carries the protocol, so logs go to stderr and the log file
	log, closer, err := logging.Open(os.Stderr, logging.Options{
		Level: cfg.Logging.Level,
		Style: "json",
		File:  paths.LogFile("mcp-facility"),
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	db, err := store.Open(paths.CacheDB(), log)
	if err != nil {
		return err
	}
	defer db.Close()

	svc, cacheCloser, err := facility.Open(context.Background(), cfg.Facility, db, log, nil)
	if err != nil {
		return err
	}
	defer cacheCloser.Close()

	log.Info().Msg("mcp-facility serving on stdio")
	return mcpserver.New(svc, log).ServeStdio()
}
