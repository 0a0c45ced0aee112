package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/expert-assistant/internal/config"
	"github.com/kirillkom/expert-assistant/internal/core/domain"
	"github.com/kirillkom/expert-assistant/internal/core/ports"
	"github.com/kirillkom/expert-assistant/internal/core/usecase"
	rediscache "github.com/kirillkom/expert-assistant/internal/infrastructure/cache/redis"
	"github.com/kirillkom/expert-assistant/internal/infrastructure/catalog"
	"github.com/kirillkom/expert-assistant/internal/infrastructure/extractor"
	"github.com/kirillkom/expert-assistant/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/expert-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/expert-assistant/internal/infrastructure/llm/openai"
	"github.com/kirillkom/expert-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/expert-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/expert-assistant/internal/infrastructure/web/duckduckgo"
	"github.com/kirillkom/expert-assistant/internal/infrastructure/web/page"
	"github.com/kirillkom/expert-assistant/internal/observability/logging"
	"github.com/kirillkom/expert-assistant/internal/observability/metrics"
)

// App is the serving context shared by every delivery surface. The
// assistant behind it is immutable and replaced wholesale on reload.
type App struct {
	Config    config.Config
	Service   string
	Metrics   *metrics.HTTPServerMetrics
	Assistant *usecase.ReloadableAssistant
	Events    *nats.Events

	parts     *components
	closeFn   []func()
	stopWatch func()
}

// components are built once per process and survive knowledge reloads.
type components struct {
	cfg         config.Config
	catalog     domain.Catalog
	executor    *resilience.Executor
	completer   ports.Completer
	embedder    ports.Embedder
	repo        ports.PassageRepository
	documents   ports.TextExtractor
	web         ports.ContextRetriever
	cache       ports.Cache
	judgeMetric *metrics.HTTPServerMetrics
	service     string

	// unavailable is domain.ErrNotConfigured when no LLM can be reached.
	unavailable error
}

// New builds the serving context. Missing credentials or a missing index do
// not fail startup: the assistant answers with the matching fixed message.
func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	httpMetrics := metrics.NewHTTPServerMetrics(service)
	executor := newExecutor(cfg, httpMetrics, service)
	app := &App{Config: cfg, Service: service, Metrics: httpMetrics}

	parts := &components{
		cfg:         cfg,
		catalog:     cat,
		executor:    executor,
		documents:   extractor.NewRegistry(),
		judgeMetric: httpMetrics,
		service:     service,
	}

	parts.completer, parts.unavailable = newCompleter(ctx, cfg, executor)
	if parts.unavailable != nil {
		slog.Warn("llm_not_configured", "provider", cfg.LLMProvider, "error", parts.unavailable)
	}
	parts.embedder = ollama.NewEmbedder(ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor))

	if needsPassageStore(cfg) {
		repo, closeRepo, err := newPassageRepository(ctx, cfg)
		if err != nil {
			slog.Warn("passage_repository_unavailable", "backend", cfg.PassageStoreBackend, "error", err)
		} else {
			parts.repo = repo
			app.closeFn = append(app.closeFn, closeRepo)
		}
	}

	if cfg.RedisAddr != "" {
		cache, err := rediscache.New(ctx, rediscache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			slog.Warn("cache_unavailable", "addr", cfg.RedisAddr, "error", err)
		} else {
			parts.cache = logging.Cache(cache)
			app.closeFn = append(app.closeFn, func() { _ = cache.Close() })
		}
	}

	if cfg.WebEnabled {
		parts.web = newWebRetriever(cfg, executor, parts.cache)
	}

	if cfg.NATSURL != "" {
		events, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{ResilienceExecutor: executor})
		if err != nil {
			slog.Warn("index_events_unavailable", "url", cfg.NATSURL, "error", err)
		} else {
			app.Events = events
			app.closeFn = append(app.closeFn, events.Close)
		}
	}

	app.parts = parts
	started := time.Now()
	assistant, kb := parts.assemble(ctx)
	app.Assistant = usecase.NewReloadableAssistant(assistant)
	app.recordReload(started, kb)
	return app, nil
}

// WatchIndex reloads the assistant on every index-rebuilt event until ctx
// is done. It returns nil right away when no event bus is configured.
func (a *App) WatchIndex(ctx context.Context) error {
	if a.Events == nil {
		return nil
	}
	return a.Events.SubscribeIndexRebuilt(ctx, func(ctx context.Context, report domain.IndexReport) error {
		slog.Info("index_rebuilt_received", "segments", report.Segments, "model", report.Model, "built_at", report.BuiltAt)
		return a.Reload(ctx)
	})
}

// Reload rebuilds the assistant from the current index and swaps it in.
// Questions already being answered finish on the old one.
func (a *App) Reload(ctx context.Context) error {
	started := time.Now()
	assistant, kb := a.parts.assemble(ctx)
	a.Assistant.Swap(assistant)
	return a.recordReload(started, kb)
}

func (a *App) recordReload(started time.Time, kb knowledgeLoad) error {
	segments := kb.base.Store.Len()
	a.Metrics.RecordReload(a.Service, time.Since(started), segments, kb.err)
	if kb.err != nil {
		slog.Warn("knowledge_unavailable", "error", kb.err)
		return kb.err
	}
	if kb.base.Store != nil {
		a.Metrics.ObserveIndexAge(a.Service, kb.base.Store.BuiltAt)
	}
	slog.Info("knowledge_reloaded",
		"mode", a.Config.RetrievalMode,
		"segments", segments,
		"document_chars", len(kb.base.Document),
		"breakers", a.parts.executor.States(),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return nil
}

// StartIndexWatch runs WatchIndex in the background until ctx is done or
// Close is called.
func (a *App) StartIndexWatch(ctx context.Context) {
	if a.Events == nil {
		return
	}
	a.startWatch(ctx, a.WatchIndex)
}

func (a *App) startWatch(ctx context.Context, watch func(context.Context) error) {
	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := watch(watchCtx); err != nil {
			slog.Error("index_watch_failed", "error", err)
		}
	}()
	a.stopWatch = func() {
		cancel()
		<-done
	}
}

// Close stops the index watch, waiting for it to drain, and then releases
// the connections in reverse order of creation.
func (a *App) Close() {
	if a.stopWatch != nil {
		a.stopWatch()
		a.stopWatch = nil
	}
	for i := len(a.closeFn) - 1; i >= 0; i-- {
		a.closeFn[i]()
	}
}

func newExecutor(cfg config.Config, m *metrics.HTTPServerMetrics, service string) *resilience.Executor {
	rc := resilience.DefaultConfig()
	rc.RetryMaxAttempts = cfg.ResilienceRetryAttempts
	rc.BreakerEnabled = cfg.BreakerEnabled
	rc.BreakerOpenTimeout = cfg.BreakerOpenTimeout
	if m != nil {
		rc.OnStateChange = func(operation, _, to string) {
			m.RecordBreakerStateChange(service, operation, to)
		}
	}
	return resilience.NewExecutor(rc)
}

func newCompleter(ctx context.Context, cfg config.Config, executor *resilience.Executor) (ports.Completer, error) {
	switch cfg.LLMProvider {
	case "groq", "openai":
		if cfg.GroqAPIKey == "" {
			return nil, domain.WrapError(domain.ErrNotConfigured, "build completer", errors.New("GROQ_API_KEY is empty"))
		}
		return openai.NewCompleter(openai.Options{
			BaseURL: cfg.GroqBaseURL,
			APIKey:  cfg.GroqAPIKey,
			Model:   cfg.GroqModel,
			Timeout: cfg.LLMTimeout,
		}, executor), nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, domain.WrapError(domain.ErrNotConfigured, "build completer", errors.New("GEMINI_API_KEY is empty"))
		}
		completer, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, executor)
		if err != nil {
			return nil, domain.WrapError(domain.ErrNotConfigured, "build completer", err)
		}
		return completer, nil
	case "ollama":
		return ollama.NewCompleter(ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)), nil
	default:
		return nil, domain.WrapError(domain.ErrNotConfigured, "build completer", fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider))
	}
}

func newWebRetriever(cfg config.Config, executor *resilience.Executor, cache ports.Cache) ports.ContextRetriever {
	var web ports.ContextRetriever = usecase.NewWebRetriever(
		duckduckgo.New(cfg.WebSearchURL, cfg.WebSearchRegion, cfg.WebFetchTimeout, executor),
		logging.Fetcher(page.NewFetcher(cfg.WebFetchTimeout)),
		page.NewExtractor(),
		usecase.WebRetrieverConfig{
			Candidates: cfg.WebCandidates,
			MinChars:   cfg.WebMinChars,
			Loose:      cfg.WebLooseMatch,
			MaxChars:   cfg.WebMaxContextChars,
		},
	)
	if cache != nil {
		web = usecase.NewCachedRetriever(web, cache, "web", cfg.CacheTTL)
	}
	return web
}
