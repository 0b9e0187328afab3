// Package main starts the weld MCP server on stdio.
package main

import (
	"context"
	"fmt"
	"os"

	"weld-agent/src/config"
	"weld-agent/src/logger"
	"weld-agent/src/mcp"
	"weld-agent/src/run"
	"weld-agent/src/session"
)

func main() {
	cfg := config.MustLoadFromEnv()

	srv, err := mcp.NewServer(func(base *run.SyncSource) (*session.Session, error) {
		// Silent logging: stdio belongs to the MCP transport.
		return session.New(cfg, base, logger.NewSilentLogger())
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create MCP server: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}
