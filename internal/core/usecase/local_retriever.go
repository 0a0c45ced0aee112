package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
	"github.com/kirillkom/expert-assistant/internal/core/ports"
)

const segmentSeparator = "\n\n---\n\n"

type LocalRetrieverConfig struct {
	TopK int
	// MaxDistance is the largest squared L2 distance the nearest segment may
	// have for the context to count as usable.
	MaxDistance float64
}

// LocalRetriever answers from the vector index of the knowledge document.
type LocalRetriever struct {
	embedder ports.Embedder
	index    ports.VectorIndex
	store    *domain.PassageStore
	cfg      LocalRetrieverConfig
}

func NewLocalRetriever(
	embedder ports.Embedder,
	index ports.VectorIndex,
	store *domain.PassageStore,
	cfg LocalRetrieverConfig,
) *LocalRetriever {
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	if cfg.MaxDistance <= 0 {
		cfg.MaxDistance = 1.2
	}
	return &LocalRetriever{
		embedder: embedder,
		index:    index,
		store:    store,
		cfg:      cfg,
	}
}

func (r *LocalRetriever) Retrieve(ctx context.Context, question string) (domain.RetrievalResult, error) {
	if r.index == nil || r.store.Len() == 0 {
		return domain.NoContext(domain.SourceManual), nil
	}

	queryVector, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return domain.NoContext(domain.SourceManual), fmt.Errorf("embed query: %w", err)
	}

	neighbors, err := r.index.Search(ctx, normalizeL2(queryVector), r.cfg.TopK)
	if err != nil {
		return domain.NoContext(domain.SourceManual), fmt.Errorf("search vector index: %w", err)
	}
	if len(neighbors) == 0 || neighbors[0].Distance > r.cfg.MaxDistance {
		return domain.NoContext(domain.SourceManual), nil
	}

	texts := make([]string, 0, len(neighbors))
	for _, n := range neighbors {
		seg, err := r.store.Segment(n.Ordinal)
		if err != nil {
			return domain.NoContext(domain.SourceManual), err
		}
		texts = append(texts, seg.Text)
	}

	return domain.RetrievalResult{
		Context: strings.Join(texts, segmentSeparator),
		Source:  domain.SourceManual,
		Usable:  true,
	}, nil
}
