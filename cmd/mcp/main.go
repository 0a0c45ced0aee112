package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	mcpadapter "github.com/kirillkom/expert-assistant/internal/adapters/mcp"
	"github.com/kirillkom/expert-assistant/internal/bootstrap"
	"github.com/kirillkom/expert-assistant/internal/config"
	"github.com/kirillkom/expert-assistant/internal/observability/logging"
)

var version = "dev"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	// stdout carries the protocol
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "mcp")
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	app.StartIndexWatch(ctx)

	if err := mcpadapter.ServeStdio(mcpadapter.NewServer(app.Assistant, version)); err != nil {
		slog.Error("mcp_server_failed", "error", err)
		app.Close()
		os.Exit(1)
	}
}
