package ports

import (
	"context"
	"time"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
)

// Completer is the LLM capability: one prompt in, one text reply out.
// A negative temperature means the provider default.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}

// Embedder builds vectors for segments and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex returns the nearest segments by squared L2 distance, closest first.
type VectorIndex interface {
	Search(ctx context.Context, queryVector []float32, limit int) ([]domain.Neighbor, error)
}

// VectorIndexWriter replaces the whole index with the given store.
type VectorIndexWriter interface {
	Replace(ctx context.Context, store *domain.PassageStore) error
}

// PassageRepository persists the passage store as one artifact.
type PassageRepository interface {
	Save(ctx context.Context, store *domain.PassageStore) error
	Load(ctx context.Context) (*domain.PassageStore, error)
}

// Chunker splits text into segments.
type Chunker interface {
	Split(text string) []string
}

// TextExtractor extracts plain text from a knowledge document on disk.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// WebSearcher returns ranked web results for a query.
type WebSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.WebResult, error)
}

// PageFetcher downloads a page body.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ContentExtractor keeps the main text of an HTML page.
type ContentExtractor interface {
	ExtractMain(html string) (string, error)
}

// Cache stores short-lived string values.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// IndexEvents publishes/consumes index rebuild notifications.
type IndexEvents interface {
	PublishIndexRebuilt(ctx context.Context, report domain.IndexReport) error
	SubscribeIndexRebuilt(ctx context.Context, handler func(context.Context, domain.IndexReport) error) error
}

// ContextRetriever produces one tier of context for a question.
type ContextRetriever interface {
	Retrieve(ctx context.Context, question string) (domain.RetrievalResult, error)
}

// RelevanceJudge decides whether a context can answer a question.
type RelevanceJudge interface {
	IsRelevant(ctx context.Context, question, candidate string) (bool, error)
}

// AnswerSynthesizer writes the final answer from labeled contexts.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, req domain.SynthesisRequest) (string, error)
}
