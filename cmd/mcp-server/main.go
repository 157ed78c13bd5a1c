package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/apresai/scriptvoice/internal/mcpserver"
	"github.com/apresai/scriptvoice/internal/observability"
)

var version = "dev"

func main() {
	logger := observability.InitLogger(os.Stderr, os.Getenv("LOG_LEVEL") == "debug")

	logger.Info("scriptvoice MCP server starting...", "version", version)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if observability.TracingEnabled() {
		tp, err := observability.InitTracer(ctx, "scriptvoice-mcp", version)
		if err != nil {
			logger.Warn("Failed to init tracer, continuing without tracing", "error", err)
		} else {
			defer func() {
				if err := tp.Shutdown(context.Background()); err != nil {
					logger.Error("Tracer shutdown error", "error", err)
				}
			}()
		}
	}

	cfg := mcpserver.DefaultConfig()
	cfg.Version = version

	srv, err := mcpserver.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
		os.Exit(0)
	}()

	if err := srv.Start(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
