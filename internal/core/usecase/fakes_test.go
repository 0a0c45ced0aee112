package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
)

func testCatalog() domain.Catalog {
	return domain.Catalog{
		DefaultLanguage: "pt",
		Profiles: map[domain.Language]domain.LanguageProfile{
			"pt": {
				Name:                 "Portuguese",
				Hints:                []string{"o que", "você", "não", "como", "qual", "é", "uma"},
				PricingKeywords:      []string{"preço", "quanto custa", "licença"},
				PricingResponse:      "Para preços e licenças, fale com nosso time comercial.",
				Fallback:             "Não encontrei informações sobre isso na fonte consultada.",
				NothingFound:         "Não encontrei informações sobre isso no manual nem na web.",
				NotConfigured:        "O serviço de IA não está configurado corretamente.",
				KnowledgeUnavailable: "A base de conhecimento está indisponível no momento.",
				TransportError:       "Desculpe, ocorreu um erro ao gerar a resposta.",
			},
			"en": {
				Name:                 "English",
				Hints:                []string{"what", "is", "the", "how", "does", "you"},
				PricingKeywords:      []string{"price", "how much", "license"},
				PricingResponse:      "For pricing and licensing, please contact our sales team.",
				Fallback:             "I could not find information about this in the consulted source.",
				NothingFound:         "I could not find information about this in the manual or on the web.",
				NotConfigured:        "The AI service is not configured correctly.",
				KnowledgeUnavailable: "The knowledge base is currently unavailable.",
				TransportError:       "Sorry, something went wrong while generating the answer.",
			},
		},
	}
}

type completerFake struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []string
	temps   []float64
}

func (f *completerFake) Complete(_ context.Context, prompt string, temperature float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.temps = append(f.temps, temperature)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

func (f *completerFake) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type embedderFake struct {
	vector  []float32
	err     error
	batches [][]string
	queries []string
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.batches = append(f.batches, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i + 1), 0, 0}
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.queries = append(f.queries, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type vectorIndexFake struct {
	neighbors []domain.Neighbor
	err       error
	limit     int
	query     []float32
}

func (f *vectorIndexFake) Search(_ context.Context, queryVector []float32, limit int) ([]domain.Neighbor, error) {
	f.limit = limit
	f.query = queryVector
	if f.err != nil {
		return nil, f.err
	}
	if len(f.neighbors) > limit {
		return f.neighbors[:limit], nil
	}
	return f.neighbors, nil
}

type retrieverFake struct {
	result domain.RetrievalResult
	err    error
	calls  int
}

func (f *retrieverFake) Retrieve(context.Context, string) (domain.RetrievalResult, error) {
	f.calls++
	return f.result, f.err
}

type judgeFake struct {
	verdict bool
	err     error
	calls   int
}

func (f *judgeFake) IsRelevant(context.Context, string, string) (bool, error) {
	f.calls++
	return f.verdict, f.err
}

type synthesizerFake struct {
	replies  []string
	err      error
	requests []domain.SynthesisRequest
}

func (f *synthesizerFake) Synthesize(_ context.Context, req domain.SynthesisRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		texts := make([]string, 0, len(req.Contexts))
		for _, c := range req.Contexts {
			texts = append(texts, string(c.Source)+": "+c.Text)
		}
		return "answer from " + strings.Join(texts, " | "), nil
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

type searcherFake struct {
	results []domain.WebResult
	err     error
	limit   int
}

func (f *searcherFake) Search(_ context.Context, _ string, limit int) ([]domain.WebResult, error) {
	f.limit = limit
	return f.results, f.err
}

type fetcherFake struct {
	pages   map[string]string
	errs    map[string]error
	fetched []string
}

func (f *fetcherFake) Fetch(_ context.Context, url string) (string, error) {
	f.fetched = append(f.fetched, url)
	if err := f.errs[url]; err != nil {
		return "", err
	}
	return f.pages[url], nil
}

type passthroughExtractor struct{}

func (passthroughExtractor) ExtractMain(html string) (string, error) {
	if html == "broken" {
		return "", errors.New("parse failure")
	}
	return html, nil
}

type cacheFake struct {
	values map[string]string
	getErr error
	sets   int
}

func newCacheFake() *cacheFake { return &cacheFake{values: map[string]string{}} }

func (f *cacheFake) Get(_ context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *cacheFake) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.sets++
	f.values[key] = value
	return nil
}

func storeOf(texts ...string) *domain.PassageStore {
	store := &domain.PassageStore{Dimension: 3}
	for i, text := range texts {
		store.Segments = append(store.Segments, domain.Segment{Ordinal: i, Text: text})
		store.Vectors = append(store.Vectors, []float32{1, 0, 0})
	}
	return store
}
