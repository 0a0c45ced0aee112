package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
)

var keywordStopWords = toTokenSet(strings.Join([]string{
	// pt
	"a o as os um uma uns umas de do da dos das em no na nos nas por para com sem",
	"e ou que qual quais quem como onde quando porque se eu voce ele ela isso isto",
	"esse essa este esta meu minha seu sua ser estar ter faz fazer sobre mais muito",
	// en
	"the an of in on at to for with without and or is are was were be been what which",
	"who how where when why it this that my your do does can i you about",
	// es
	"el la los las un una unos unas del al en por para con sin y o es son que cual",
	"quien como donde cuando porque mi tu su sobre",
}, " "))

type KeywordRetrieverConfig struct {
	TopK int
}

// KeywordRetriever scores segments by how many distinct query words they
// contain. It needs no embedding model.
type KeywordRetriever struct {
	segments []domain.Segment
	folded   []string
	cfg      KeywordRetrieverConfig
}

func NewKeywordRetriever(store *domain.PassageStore, cfg KeywordRetrieverConfig) *KeywordRetriever {
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	r := &KeywordRetriever{cfg: cfg}
	if store != nil {
		r.segments = store.Segments
		r.folded = make([]string, len(store.Segments))
		for i, seg := range store.Segments {
			r.folded[i] = fold(seg.Text)
		}
	}
	return r
}

type scoredSegment struct {
	segment domain.Segment
	score   int
}

func (r *KeywordRetriever) Retrieve(_ context.Context, question string) (domain.RetrievalResult, error) {
	words := queryKeywords(question)
	if len(words) == 0 || len(r.segments) == 0 {
		return domain.NoContext(domain.SourceManual), nil
	}

	scored := make([]scoredSegment, len(r.segments))
	for i, seg := range r.segments {
		score := 0
		for _, w := range words {
			if strings.Contains(r.folded[i], w) {
				score++
			}
		}
		scored[i] = scoredSegment{segment: seg, score: score}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if scored[0].score == 0 {
		return domain.NoContext(domain.SourceManual), nil
	}

	texts := make([]string, 0, r.cfg.TopK)
	for _, s := range scored {
		if len(texts) == r.cfg.TopK || s.score == 0 {
			break
		}
		texts = append(texts, s.segment.Text)
	}

	return domain.RetrievalResult{
		Context: strings.Join(texts, segmentSeparator),
		Source:  domain.SourceManual,
		Usable:  true,
	}, nil
}

// queryKeywords returns the distinct non-stop words of the question in order.
func queryKeywords(question string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 8)
	for _, w := range splitWords(question) {
		if _, stop := keywordStopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
