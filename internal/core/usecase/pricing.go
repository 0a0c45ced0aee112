package usecase

import (
	"strings"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
)

// PricingClassifier recognises pricing and licensing questions. Keywords of
// every catalog language are checked so a mixed-language question still
// matches; the reply language is decided separately.
type PricingClassifier struct {
	phrases []string
}

func NewPricingClassifier(catalog domain.Catalog) *PricingClassifier {
	c := &PricingClassifier{}
	seen := make(map[string]struct{})
	for _, profile := range catalog.Profiles {
		for _, keyword := range profile.PricingKeywords {
			words := splitWords(keyword)
			if len(words) == 0 {
				continue
			}
			phrase := phraseIndex(words)
			if _, ok := seen[phrase]; ok {
				continue
			}
			seen[phrase] = struct{}{}
			c.phrases = append(c.phrases, phrase)
		}
	}
	return c
}

func (c *PricingClassifier) IsPricingQuestion(question string) bool {
	haystack := phraseIndex(splitWords(question))
	for _, phrase := range c.phrases {
		if strings.Contains(haystack, phrase) {
			return true
		}
	}
	return false
}
