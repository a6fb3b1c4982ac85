package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/leonardcser/clockverse/internal/app"
	"github.com/leonardcser/clockverse/internal/config"
	"github.com/leonardcser/clockverse/internal/logger"
	"github.com/leonardcser/clockverse/internal/tools"
)

func main() {
	if err := logger.InitFromEnv(); err != nil {
		panic(err)
	}
	defer logger.Close()

	logger.Infof("Starting clockverse MCP server")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Errorf("config: %v", err)
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, closer, err := app.OpenStore(ctx, cfg, logger.Named("cache"))
	if err != nil {
		logger.Errorf("Failed to open shared store: %v", err)
		panic(err)
	}
	defer closer.Close()
	logger.Infof("Connected to %s cache backend", cfg.CacheBackend)

	svc := app.NewService(cfg, kv, logger.L())

	s := server.NewMCPServer(
		"Clockverse",
		"0.1.0",
		server.WithRecovery(),
		server.WithToolCapabilities(false),
	)
	s.AddTool(tools.NewCurrentVerseTool(), tools.CurrentVerseHandler(svc))
	logger.Infof("Registered %s tool", tools.CurrentVerseName)

	logger.Infof("Starting MCP server on stdio")
	if err := server.ServeStdio(s); err != nil {
		logger.Errorf("server error: %v", err)
	}
}
