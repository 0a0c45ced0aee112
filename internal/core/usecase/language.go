package usecase

import (
	"sort"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
)

// LanguageDetector picks the catalog language whose hint words occur most
// often in the text. Ties and texts without hints get the default language.
type LanguageDetector struct {
	catalog domain.Catalog
	hints   map[domain.Language]map[string]struct{}
	order   []domain.Language
}

func NewLanguageDetector(catalog domain.Catalog) *LanguageDetector {
	d := &LanguageDetector{
		catalog: catalog,
		hints:   make(map[domain.Language]map[string]struct{}, len(catalog.Profiles)),
	}
	for lang, profile := range catalog.Profiles {
		set := make(map[string]struct{}, len(profile.Hints))
		for _, hint := range profile.Hints {
			for _, w := range splitWords(hint) {
				set[w] = struct{}{}
			}
		}
		d.hints[lang] = set
		d.order = append(d.order, lang)
	}
	sort.Slice(d.order, func(i, j int) bool { return d.order[i] < d.order[j] })
	return d
}

func (d *LanguageDetector) Detect(text string) domain.Language {
	words := splitWords(text)
	best := d.catalog.DefaultLanguage
	bestScore := 0
	tie := false
	for _, lang := range d.order {
		score := 0
		for _, w := range words {
			if _, ok := d.hints[lang][w]; ok {
				score++
			}
		}
		switch {
		case score > bestScore:
			best, bestScore, tie = lang, score, false
		case score == bestScore && score > 0:
			tie = true
		}
	}
	if bestScore == 0 || tie {
		return d.catalog.DefaultLanguage
	}
	return best
}
