package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/kirillkom/expert-assistant/internal/adapters/tui"
	"github.com/kirillkom/expert-assistant/internal/bootstrap"
	"github.com/kirillkom/expert-assistant/internal/config"
	"github.com/kirillkom/expert-assistant/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logPath := filepath.Join(os.TempDir(), "expert-chat.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	slog.SetDefault(logging.NewJSONLoggerTo(logFile, "chat", cfg.LogLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, cfg, "chat")
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	app.StartIndexWatch(ctx)

	timeout := cfg.AnswerDeadline()
	model := tui.New(app.Assistant, cfg.HistoryTurns, timeout)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "chat: %v\n", err)
		os.Exit(1)
	}
}
