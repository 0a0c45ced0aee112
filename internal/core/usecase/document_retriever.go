package usecase

import (
	"context"
	"strings"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
)

// DocumentRetriever hands the whole knowledge document to the model.
type DocumentRetriever struct {
	document string
}

func NewDocumentRetriever(document string) *DocumentRetriever {
	return &DocumentRetriever{document: strings.TrimSpace(document)}
}

func (r *DocumentRetriever) Retrieve(context.Context, string) (domain.RetrievalResult, error) {
	if r.document == "" {
		return domain.NoContext(domain.SourceManual), nil
	}
	return domain.RetrievalResult{
		Context: r.document,
		Source:  domain.SourceManual,
		Usable:  true,
	}, nil
}
