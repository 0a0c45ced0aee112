package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
	"github.com/kirillkom/expert-assistant/internal/core/ports"
)

// The decorators below log stage failures the assistant absorbs into a
// miss, a "not relevant" verdict or a fixed message.

type retriever struct {
	next   ports.ContextRetriever
	source string
}

func Retriever(next ports.ContextRetriever, source string) ports.ContextRetriever {
	if next == nil {
		return nil
	}
	return &retriever{next: next, source: source}
}

func (r *retriever) Retrieve(ctx context.Context, question string) (domain.RetrievalResult, error) {
	result, err := r.next.Retrieve(ctx, question)
	if err != nil {
		slog.WarnContext(ctx, "retrieval_failed", "source", r.source, "error", err.Error())
	}
	return result, err
}

type judge struct {
	next ports.RelevanceJudge
}

func Judge(next ports.RelevanceJudge) ports.RelevanceJudge {
	if next == nil {
		return nil
	}
	return &judge{next: next}
}

func (j *judge) IsRelevant(ctx context.Context, question, candidate string) (bool, error) {
	ok, err := j.next.IsRelevant(ctx, question, candidate)
	if err != nil {
		slog.WarnContext(ctx, "relevance_judge_failed", "error", err.Error())
	}
	return ok, err
}

type synthesizer struct {
	next     ports.AnswerSynthesizer
	strategy string
}

func Synthesizer(next ports.AnswerSynthesizer, strategy string) ports.AnswerSynthesizer {
	if next == nil {
		return nil
	}
	return &synthesizer{next: next, strategy: strategy}
}

func (s *synthesizer) Synthesize(ctx context.Context, req domain.SynthesisRequest) (string, error) {
	text, err := s.next.Synthesize(ctx, req)
	if err != nil {
		slog.ErrorContext(ctx, "ask_synthesis_failed", "strategy", s.strategy, "contexts", len(req.Contexts), "error", err.Error())
	}
	return text, err
}

type fetcher struct {
	next ports.PageFetcher
}

// Fetcher logs every web candidate that could not be downloaded.
func Fetcher(next ports.PageFetcher) ports.PageFetcher {
	return &fetcher{next: next}
}

func (f *fetcher) Fetch(ctx context.Context, url string) (string, error) {
	page, err := f.next.Fetch(ctx, url)
	if err != nil {
		slog.WarnContext(ctx, "web_candidate_failed", "url", url, "error", err.Error())
	}
	return page, err
}

type cache struct {
	next ports.Cache
}

func Cache(next ports.Cache) ports.Cache {
	if next == nil {
		return nil
	}
	return &cache{next: next}
}

func (c *cache) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok, err := c.next.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "cache_get_failed", "error", err.Error())
	}
	return value, ok, err
}

func (c *cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	err := c.next.Set(ctx, key, value, ttl)
	if err != nil {
		slog.WarnContext(ctx, "cache_set_failed", "error", err.Error())
	}
	return err
}

type events struct {
	ports.IndexEvents
}

// Events logs index-rebuilt notifications that could not be published.
func Events(next ports.IndexEvents) ports.IndexEvents {
	if next == nil {
		return nil
	}
	return &events{IndexEvents: next}
}

func (e *events) PublishIndexRebuilt(ctx context.Context, report domain.IndexReport) error {
	err := e.IndexEvents.PublishIndexRebuilt(ctx, report)
	if err != nil {
		slog.WarnContext(ctx, "index_rebuilt_publish_failed", "segments", report.Segments, "error", err.Error())
	}
	return err
}
