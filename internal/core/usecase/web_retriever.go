package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
	"github.com/kirillkom/expert-assistant/internal/core/ports"
)

type WebRetrieverConfig struct {
	// Candidates is how many ranked results are tried, in order.
	Candidates int
	// MinChars is the shortest extracted text accepted as usable.
	MinChars int
	// Loose accepts any non-empty extracted text.
	Loose bool
	// MaxChars truncates the accepted text in the prompt context.
	MaxChars int
}

// WebRetriever searches the web and returns the first result page whose
// main text is long enough to answer from.
type WebRetriever struct {
	searcher  ports.WebSearcher
	fetcher   ports.PageFetcher
	extractor ports.ContentExtractor
	cfg       WebRetrieverConfig
}

func NewWebRetriever(
	searcher ports.WebSearcher,
	fetcher ports.PageFetcher,
	extractor ports.ContentExtractor,
	cfg WebRetrieverConfig,
) *WebRetriever {
	if cfg.Candidates <= 0 {
		cfg.Candidates = 3
	}
	if cfg.MinChars <= 0 {
		cfg.MinChars = 100
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 2500
	}
	return &WebRetriever{
		searcher:  searcher,
		fetcher:   fetcher,
		extractor: extractor,
		cfg:       cfg,
	}
}

func (r *WebRetriever) Retrieve(ctx context.Context, question string) (domain.RetrievalResult, error) {
	results, err := r.searcher.Search(ctx, question, r.cfg.Candidates)
	if err != nil {
		return domain.NoContext(domain.SourceWeb), fmt.Errorf("web search: %w", err)
	}
	if len(results) > r.cfg.Candidates {
		results = results[:r.cfg.Candidates]
	}

	var failures []error
	for _, result := range results {
		if err := ctx.Err(); err != nil {
			return domain.NoContext(domain.SourceWeb), fmt.Errorf("web retrieval: %w", err)
		}
		text, err := r.candidateText(ctx, result)
		if err != nil {
			failures = append(failures, fmt.Errorf("candidate %d (%s): %w", result.Position, result.URL, err))
			continue
		}
		if !r.acceptable(text) {
			continue
		}
		return domain.RetrievalResult{
			Context:    r.format(result, text),
			Source:     domain.SourceWeb,
			Usable:     true,
			References: []string{result.URL},
		}, nil
	}

	if err := ctx.Err(); err != nil {
		return domain.NoContext(domain.SourceWeb), fmt.Errorf("web retrieval: %w", err)
	}
	// A miss is only reported when some page was read and found too short.
	if len(failures) > 0 && len(failures) == len(results) {
		return domain.NoContext(domain.SourceWeb), fmt.Errorf("web retrieval: %w", errors.Join(failures...))
	}
	return domain.NoContext(domain.SourceWeb), nil
}

func (r *WebRetriever) candidateText(ctx context.Context, result domain.WebResult) (string, error) {
	page, err := r.fetcher.Fetch(ctx, result.URL)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	text, err := r.extractor.ExtractMain(page)
	if err != nil {
		return "", fmt.Errorf("extract main content: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (r *WebRetriever) acceptable(text string) bool {
	if text == "" {
		return false
	}
	if r.cfg.Loose {
		return true
	}
	return utf8.RuneCountInString(text) >= r.cfg.MinChars
}

func (r *WebRetriever) format(result domain.WebResult, text string) string {
	body, cut := truncateRunes(text, r.cfg.MaxChars)
	if cut {
		body += "..."
	}
	var b strings.Builder
	if result.Title != "" {
		b.WriteString("Source: " + result.Title + "\n")
	}
	b.WriteString("URL: " + result.URL + "\n")
	b.WriteString("CONTENT: " + body)
	return b.String()
}
