package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/expert-assistant/internal/config"
	"github.com/kirillkom/expert-assistant/internal/core/ports"
	"github.com/kirillkom/expert-assistant/internal/core/usecase"
	"github.com/kirillkom/expert-assistant/internal/infrastructure/chunking"
	"github.com/kirillkom/expert-assistant/internal/infrastructure/extractor"
	"github.com/kirillkom/expert-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/expert-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/expert-assistant/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/expert-assistant/internal/observability/logging"
)

// Indexer is the offline rebuild context used by cmd/indexer.
type Indexer struct {
	Builder ports.IndexBuilder

	closeFn []func()
}

// NewIndexer wires the rebuild pipeline. Unlike the serving context it
// fails fast: an indexer that cannot persist has nothing useful to do.
func NewIndexer(ctx context.Context, cfg config.Config) (*Indexer, error) {
	executor := newExecutor(cfg, nil, "indexer")
	out := &Indexer{}

	repo, closeRepo, err := newPassageRepository(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init passage repository: %w", err)
	}
	out.closeFn = append(out.closeFn, closeRepo)

	var writer ports.VectorIndexWriter
	if cfg.VectorBackend == "qdrant" {
		writer = qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, executor)
	}

	var events ports.IndexEvents
	if cfg.NATSURL != "" {
		bus, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{ResilienceExecutor: executor})
		if err != nil {
			slog.Warn("index_events_unavailable", "url", cfg.NATSURL, "error", err)
		} else {
			events = logging.Events(bus)
			out.closeFn = append(out.closeFn, bus.Close)
		}
	}

	out.Builder = usecase.NewIndexBuilderUseCase(
		extractor.NewRegistry(),
		chunking.NewParagraphSplitter(cfg.ChunkMinChars, cfg.ChunkMaxChars, cfg.ChunkOverlap),
		ollama.NewEmbedder(ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)),
		repo,
		writer,
		events,
		usecase.IndexBuilderConfig{
			Model:     cfg.OllamaEmbedModel,
			BatchSize: cfg.EmbedBatchSize,
		},
	)
	return out, nil
}

func (i *Indexer) Close() {
	for j := len(i.closeFn) - 1; j >= 0; j-- {
		i.closeFn[j]()
	}
}
