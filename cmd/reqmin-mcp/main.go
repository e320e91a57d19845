package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/usestring/reqmin/pkg/mcpsrv"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Configuration is loaded from environment variables:
	// - LOG_LEVEL, LOG_FILE: logging
	// - REQUEST_TIMEOUT_MS, MAX_RESPONSE_BYTES: trial transport
	// - POWHTTP_BASE_URL: where captured entries are imported from
	// - etc. (see internal/config for all options)
	server, err := mcpsrv.NewServer()
	if err != nil {
		slog.Error("failed to create MCP server", "error", err)
		os.Exit(1)
	}
	defer server.Close()

	slog.Info("starting reqmin MCP server on stdio")
	if err := server.Run(ctx); err != nil && err != context.Canceled {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
