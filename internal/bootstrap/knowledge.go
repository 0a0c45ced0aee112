package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/expert-assistant/internal/config"
	"github.com/kirillkom/expert-assistant/internal/core/domain"
	"github.com/kirillkom/expert-assistant/internal/core/ports"
	"github.com/kirillkom/expert-assistant/internal/core/usecase"
	"github.com/kirillkom/expert-assistant/internal/infrastructure/repository/localfs"
	"github.com/kirillkom/expert-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/expert-assistant/internal/infrastructure/vector/memory"
	"github.com/kirillkom/expert-assistant/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/expert-assistant/internal/observability/logging"
	"github.com/kirillkom/expert-assistant/internal/observability/metrics"
)

const (
	modeVector   = "vector"
	modeKeyword  = "keyword"
	modeDocument = "document"
)

type knowledgeLoad struct {
	base  domain.KnowledgeBase
	local ports.ContextRetriever
	err   error
}

// assemble builds one immutable assistant over the knowledge that is
// available right now. Knowledge errors degrade the assistant rather than
// fail the caller.
func (c *components) assemble(ctx context.Context) (ports.Assistant, knowledgeLoad) {
	kb := c.loadKnowledge(ctx)

	unavailable := c.unavailable
	if unavailable == nil && kb.err != nil {
		unavailable = domain.ErrKnowledgeUnavailable
	}

	deps := usecase.OrchestratorDeps{
		Local:       logging.Retriever(kb.local, "local"),
		Web:         logging.Retriever(c.web, "web"),
		Catalog:     c.catalog,
		Unavailable: unavailable,
	}
	if c.completer != nil {
		var judge ports.RelevanceJudge = usecase.NewLLMRelevanceJudge(c.completer)
		if c.cache != nil {
			judge = usecase.NewCachedJudge(judge, c.cache, c.cfg.CacheTTL)
		}
		deps.Judge = logging.Judge(metrics.InstrumentJudge(judge, c.judgeMetric, c.service))
	}

	strategy, err := domain.ParseStrategy(c.cfg.AssistantStrategy)
	if err != nil {
		slog.Warn("unknown_strategy", "strategy", c.cfg.AssistantStrategy, "error", err)
		strategy = domain.StrategyJudged
	}
	if c.completer != nil {
		deps.Synthesizer = logging.Synthesizer(usecase.NewLLMAnswerSynthesizer(c.completer, c.catalog), string(strategy))
	}
	return usecase.NewOrchestrator(deps, usecase.OrchestratorConfig{
		Strategy:         strategy,
		HistoryTurns:     c.cfg.HistoryTurns,
		RetrievalTimeout: c.cfg.RetrievalTimeout,
		WebTimeout:       c.cfg.WebTimeout,
		JudgeTimeout:     c.cfg.JudgeTimeout,
		SynthesisTimeout: c.cfg.SynthesisTimeout,
	}), kb
}

func (c *components) loadKnowledge(ctx context.Context) knowledgeLoad {
	switch c.cfg.RetrievalMode {
	case modeDocument:
		text, err := c.documents.Extract(ctx, c.cfg.KnowledgeDocumentPath)
		if err == nil && strings.TrimSpace(text) == "" {
			err = errors.New("knowledge document is empty")
		}
		if err != nil {
			return knowledgeLoad{err: domain.WrapError(domain.ErrKnowledgeUnavailable, "load document", err)}
		}
		return knowledgeLoad{
			base:  domain.KnowledgeBase{Document: text},
			local: usecase.NewDocumentRetriever(text),
		}

	case modeKeyword, modeVector:
		store, err := c.loadStore(ctx)
		if err != nil {
			return knowledgeLoad{err: err}
		}
		kb := knowledgeLoad{base: domain.KnowledgeBase{Store: store}}
		if c.cfg.RetrievalMode == modeKeyword {
			kb.local = usecase.NewKeywordRetriever(store, usecase.KeywordRetrieverConfig{TopK: c.cfg.LocalTopK})
			return kb
		}
		index, err := c.vectorIndex(ctx, store)
		if err != nil {
			return knowledgeLoad{err: err}
		}
		kb.local = usecase.NewLocalRetriever(c.embedder, index, store, usecase.LocalRetrieverConfig{
			TopK:        c.cfg.LocalTopK,
			MaxDistance: c.cfg.LocalMaxDistance,
		})
		return kb

	default:
		return knowledgeLoad{err: domain.WrapError(domain.ErrKnowledgeUnavailable, "load knowledge",
			fmt.Errorf("unknown RETRIEVAL_MODE %q", c.cfg.RetrievalMode))}
	}
}

func (c *components) loadStore(ctx context.Context) (*domain.PassageStore, error) {
	if c.repo == nil {
		return nil, domain.WrapError(domain.ErrKnowledgeUnavailable, "load passage store", errors.New("no passage repository"))
	}
	store, err := c.repo.Load(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.ErrKnowledgeUnavailable, "load passage store", err)
	}
	if store.Len() == 0 {
		return nil, domain.WrapError(domain.ErrKnowledgeUnavailable, "load passage store", errors.New("passage store is empty"))
	}
	return store, nil
}

// vectorIndex returns the search side of the store. A remote index must
// hold exactly as many points as the store has segments.
func (c *components) vectorIndex(ctx context.Context, store *domain.PassageStore) (ports.VectorIndex, error) {
	if len(store.Vectors) != store.Len() {
		return nil, domain.WrapError(domain.ErrKnowledgeUnavailable, "open vector index",
			domain.WrapError(domain.ErrIndexMismatch, "open vector index", errors.New("store has no vectors")))
	}
	if c.cfg.VectorBackend != "qdrant" {
		return memory.New(store), nil
	}
	client := qdrant.New(c.cfg.QdrantURL, c.cfg.QdrantCollection, c.executor)
	count, err := client.Count(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.ErrKnowledgeUnavailable, "count qdrant points", err)
	}
	if count != store.Len() {
		return nil, domain.WrapError(domain.ErrKnowledgeUnavailable, "open vector index",
			domain.WrapError(domain.ErrIndexMismatch, "open vector index",
				fmt.Errorf("qdrant has %d points, store has %d segments", count, store.Len())))
	}
	return client, nil
}

func needsPassageStore(cfg config.Config) bool {
	return cfg.RetrievalMode != modeDocument
}

// newPassageRepository opens the configured passage store backend. The
// returned func releases it.
func newPassageRepository(ctx context.Context, cfg config.Config) (ports.PassageRepository, func(), error) {
	switch cfg.PassageStoreBackend {
	case "postgres":
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewPassageRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, closeDB(db), nil
	case "file", "":
		repo, err := localfs.New(cfg.PassageStorePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open passage file: %w", err)
		}
		return repo, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown PASSAGE_STORE %q", cfg.PassageStoreBackend)
	}
}

func closeDB(db *sql.DB) func() {
	return func() { _ = db.Close() }
}
