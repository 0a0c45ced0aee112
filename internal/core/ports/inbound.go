package ports

import (
	"context"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
)

// Assistant is the inbound contract for answering questions.
type Assistant interface {
	Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error)
}

// IndexBuilder is the inbound contract for the offline index rebuild.
type IndexBuilder interface {
	Build(ctx context.Context, documentPath string) (*domain.IndexReport, error)
}
