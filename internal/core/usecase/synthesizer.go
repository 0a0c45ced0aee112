package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
	"github.com/kirillkom/expert-assistant/internal/core/ports"
)

// LLMAnswerSynthesizer writes the final answer restricted to the given contexts.
type LLMAnswerSynthesizer struct {
	completer ports.Completer
	catalog   domain.Catalog
}

func NewLLMAnswerSynthesizer(completer ports.Completer, catalog domain.Catalog) *LLMAnswerSynthesizer {
	return &LLMAnswerSynthesizer{completer: completer, catalog: catalog}
}

func (s *LLMAnswerSynthesizer) Synthesize(ctx context.Context, req domain.SynthesisRequest) (string, error) {
	profile := s.catalog.Profile(req.Language)
	reply, err := s.completer.Complete(ctx, buildAnswerPrompt(req, profile), domain.ProviderDefaultTemperature)
	if err != nil {
		return "", fmt.Errorf("synthesize answer: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", domain.WrapError(domain.ErrTemporary, "synthesize answer", errors.New("empty completion"))
	}
	return reply, nil
}
