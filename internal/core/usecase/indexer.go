package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
	"github.com/kirillkom/expert-assistant/internal/core/ports"
)

type IndexBuilderConfig struct {
	Model     string
	BatchSize int
}

// IndexBuilderUseCase rebuilds the passage store from the knowledge
// document: extract, split, embed, persist, then refresh the vector index.
type IndexBuilderUseCase struct {
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	repo      ports.PassageRepository
	writer    ports.VectorIndexWriter
	events    ports.IndexEvents
	cfg       IndexBuilderConfig
	now       func() time.Time
}

// NewIndexBuilderUseCase wires the indexer. writer and events may be nil.
func NewIndexBuilderUseCase(
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	repo ports.PassageRepository,
	writer ports.VectorIndexWriter,
	events ports.IndexEvents,
	cfg IndexBuilderConfig,
) *IndexBuilderUseCase {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	return &IndexBuilderUseCase{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		repo:      repo,
		writer:    writer,
		events:    events,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (uc *IndexBuilderUseCase) Build(ctx context.Context, documentPath string) (*domain.IndexReport, error) {
	text, err := uc.extractText(ctx, documentPath)
	if err != nil {
		return nil, err
	}

	chunks, err := uc.chunk(text)
	if err != nil {
		return nil, err
	}

	vectors, err := uc.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}

	store := uc.assemble(chunks, vectors)
	if err := store.Validate(); err != nil {
		return nil, fmt.Errorf("validate passage store: %w", err)
	}

	if err := uc.repo.Save(ctx, store); err != nil {
		return nil, fmt.Errorf("save passage store: %w", err)
	}
	if uc.writer != nil {
		if err := uc.writer.Replace(ctx, store); err != nil {
			return nil, fmt.Errorf("replace vector index: %w", err)
		}
	}

	report := &domain.IndexReport{
		SourcePath: documentPath,
		Model:      store.Model,
		Segments:   store.Len(),
		Dimension:  store.Dimension,
		BuiltAt:    store.BuiltAt,
	}
	uc.announce(ctx, *report)
	return report, nil
}

func (uc *IndexBuilderUseCase) extractText(ctx context.Context, documentPath string) (string, error) {
	text, err := uc.extractor.Extract(ctx, documentPath)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}
	return text, nil
}

func (uc *IndexBuilderUseCase) chunk(text string) ([]string, error) {
	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}
	return chunks, nil
}

func (uc *IndexBuilderUseCase) embed(ctx context.Context, chunks []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += uc.cfg.BatchSize {
		end := min(start+uc.cfg.BatchSize, len(chunks))
		batch, err := uc.embedder.Embed(ctx, chunks[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end, err)
		}
		if len(batch) != end-start {
			return nil, domain.WrapError(
				domain.ErrIndexMismatch,
				"embed chunks",
				fmt.Errorf("vectors/chunks mismatch: %d/%d", len(batch), end-start),
			)
		}
		for _, v := range batch {
			vectors = append(vectors, normalizeL2(v))
		}
	}
	return vectors, nil
}

func (uc *IndexBuilderUseCase) assemble(chunks []string, vectors [][]float32) *domain.PassageStore {
	store := &domain.PassageStore{
		Model:    uc.cfg.Model,
		BuiltAt:  uc.now().UTC(),
		Segments: make([]domain.Segment, len(chunks)),
		Vectors:  vectors,
	}
	if len(vectors) > 0 {
		store.Dimension = len(vectors[0])
	}
	for i, text := range chunks {
		store.Segments[i] = domain.Segment{Ordinal: i, Text: text}
	}
	return store
}

func (uc *IndexBuilderUseCase) announce(ctx context.Context, report domain.IndexReport) {
	if uc.events == nil {
		return
	}
	// Readers also pick the index up on their next restart.
	_ = uc.events.PublishIndexRebuilt(ctx, report)
}
