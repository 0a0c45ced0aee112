package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/expert-assistant/internal/bootstrap"
	"github.com/kirillkom/expert-assistant/internal/config"
	"github.com/kirillkom/expert-assistant/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	document := flag.String("document", cfg.KnowledgeDocumentPath, "knowledge document to index (.txt, .md, .pdf, .xlsx)")
	timeout := flag.Duration("timeout", 30*time.Minute, "upper bound for the whole rebuild")
	flag.Parse()

	slog.SetDefault(logging.NewJSONLogger("indexer", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	indexer, err := bootstrap.NewIndexer(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer indexer.Close()

	started := time.Now()
	report, err := indexer.Builder.Build(ctx, *document)
	if err != nil {
		slog.Error("index_build_failed", "document", *document, "error", err)
		indexer.Close()
		os.Exit(1)
	}
	slog.Info("index_built",
		"document", report.SourcePath,
		"model", report.Model,
		"segments", report.Segments,
		"dimension", report.Dimension,
		"store", cfg.PassageStoreBackend,
		"vector_backend", cfg.VectorBackend,
		"duration_ms", time.Since(started).Milliseconds(),
	)
}
