package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
	"github.com/kirillkom/expert-assistant/internal/core/ports"
)

// Registry picks a text extractor by file extension.
type Registry struct {
	byExt map[string]ports.TextExtractor
}

func NewRegistry() *Registry {
	plain := NewPlainText()
	return &Registry{byExt: map[string]ports.TextExtractor{
		".txt":      plain,
		".md":       plain,
		".markdown": plain,
		".pdf":      NewPDF(),
		".xlsx":     NewSpreadsheet(),
	}}
}

func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	ex, ok := r.byExt[ext]
	if !ok {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", fmt.Errorf("unsupported document type %q", ext))
	}
	return ex.Extract(ctx, path)
}
