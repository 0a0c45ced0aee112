package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/expert-assistant/internal/core/ports"
)

var (
	affirmativeTokens = map[string]struct{}{"yes": {}, "sim": {}, "si": {}}
	negativeTokens    = map[string]struct{}{"no": {}, "nao": {}}
)

// LLMRelevanceJudge asks the model for a strict yes/no verdict. Any reply
// that is not clearly affirmative counts as not relevant.
type LLMRelevanceJudge struct {
	completer ports.Completer
}

func NewLLMRelevanceJudge(completer ports.Completer) *LLMRelevanceJudge {
	return &LLMRelevanceJudge{completer: completer}
}

func (j *LLMRelevanceJudge) IsRelevant(ctx context.Context, question, candidate string) (bool, error) {
	if strings.TrimSpace(candidate) == "" {
		return false, nil
	}
	reply, err := j.completer.Complete(ctx, buildJudgePrompt(question, candidate), 0)
	if err != nil {
		return false, fmt.Errorf("judge relevance: %w", err)
	}
	return parseVerdict(reply), nil
}

// parseVerdict returns the verdict of the first yes/no token in the reply.
func parseVerdict(reply string) bool {
	for _, w := range splitWords(reply) {
		if _, ok := affirmativeTokens[w]; ok {
			return true
		}
		if _, ok := negativeTokens[w]; ok {
			return false
		}
	}
	return false
}
