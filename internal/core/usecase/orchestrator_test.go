package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
)

type orchestratorFixture struct {
	local       *retrieverFake
	web         *retrieverFake
	judge       *judgeFake
	synthesizer *synthesizerFake
}

func newFixture() *orchestratorFixture {
	return &orchestratorFixture{
		local:       &retrieverFake{result: domain.NoContext(domain.SourceManual)},
		web:         &retrieverFake{result: domain.NoContext(domain.SourceWeb)},
		judge:       &judgeFake{},
		synthesizer: &synthesizerFake{},
	}
}

func (f *orchestratorFixture) build(strategy domain.Strategy, unavailable error) *Orchestrator {
	return NewOrchestrator(OrchestratorDeps{
		Local:       f.local,
		Web:         f.web,
		Judge:       f.judge,
		Synthesizer: f.synthesizer,
		Catalog:     testCatalog(),
		Unavailable: unavailable,
	}, OrchestratorConfig{Strategy: strategy})
}

func usable(source domain.SourceLabel, text string) domain.RetrievalResult {
	return domain.RetrievalResult{Context: text, Source: source, Usable: true}
}

func TestOrchestratorAnswersFromLocalWhenJudgedRelevant(t *testing.T) {
	f := newFixture()
	f.local.result = usable(domain.SourceManual, "compressão reduz a faixa dinâmica")
	f.judge.verdict = true

	answer, err := f.build(domain.StrategyJudged, nil).Ask(context.Background(), domain.AskRequest{Question: "O que é compressão de áudio?"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Route != domain.RouteLocal {
		t.Fatalf("expected local route, got %s", answer.Route)
	}
	if f.web.calls != 0 {
		t.Fatalf("expected web never invoked, got %d calls", f.web.calls)
	}
	ctxs := f.synthesizer.requests[0].Contexts
	if len(ctxs) != 1 || ctxs[0].Source != domain.SourceManual || ctxs[0].Text != "compressão reduz a faixa dinâmica" {
		t.Fatalf("unexpected synthesis contexts %+v", ctxs)
	}
	if answer.Language != "pt" {
		t.Fatalf("expected pt, got %s", answer.Language)
	}
}

func TestOrchestratorEscalatesToWeb(t *testing.T) {
	f := newFixture()
	f.web.result = usable(domain.SourceWeb, "Brazil won the 1970 World Cup.")

	answer, err := f.build(domain.StrategyJudged, nil).Ask(context.Background(), domain.AskRequest{Question: "Who won the 1970 World Cup?"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Route != domain.RouteWeb {
		t.Fatalf("expected web route, got %s", answer.Route)
	}
	if f.judge.calls != 0 {
		t.Fatalf("expected no judge call for empty local context, got %d", f.judge.calls)
	}
	ctxs := f.synthesizer.requests[0].Contexts
	if len(ctxs) != 1 || ctxs[0].Source != domain.SourceWeb {
		t.Fatalf("expected single web context, got %+v", ctxs)
	}
}

func TestOrchestratorNothingFoundMessage(t *testing.T) {
	f := newFixture()
	answer, err := f.build(domain.StrategyJudged, nil).Ask(context.Background(), domain.AskRequest{Question: "Who won the 1970 World Cup?"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Text != testCatalog().Profile("en").NothingFound {
		t.Fatalf("expected exact nothing-found message, got %q", answer.Text)
	}
	if len(f.synthesizer.requests) != 0 {
		t.Fatalf("expected no synthesis")
	}
}

func TestOrchestratorIrrelevantLocalGoesToWeb(t *testing.T) {
	f := newFixture()
	f.local.result = usable(domain.SourceManual, "manual text")
	f.web.result = usable(domain.SourceWeb, "web text")
	f.judge.verdict = false

	answer, err := f.build(domain.StrategyJudged, nil).Ask(context.Background(), domain.AskRequest{Question: "q"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Route != domain.RouteWeb || f.judge.calls != 1 {
		t.Fatalf("expected judged escalation to web, route=%s judge calls=%d", answer.Route, f.judge.calls)
	}
}

func TestOrchestratorRetrievalErrorIsMiss(t *testing.T) {
	f := newFixture()
	f.local.err = errors.New("embedding server down")
	f.web.result = usable(domain.SourceWeb, "web text")

	answer, err := f.build(domain.StrategyJudged, nil).Ask(context.Background(), domain.AskRequest{Question: "q"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Route != domain.RouteWeb {
		t.Fatalf("expected web route after local failure, got %s", answer.Route)
	}
}

func TestOrchestratorPricingShortCircuit(t *testing.T) {
	cases := []struct {
		question string
		lang     domain.Language
	}{
		{"Qual é o preço da licença?", "pt"},
		{"How much does the license cost?", "en"},
	}
	for _, tc := range cases {
		f := newFixture()
		answer, err := f.build(domain.StrategyJudged, nil).Ask(context.Background(), domain.AskRequest{Question: tc.question})
		if err != nil {
			t.Fatalf("Ask(%q) error = %v", tc.question, err)
		}
		if answer.Route != domain.RoutePricing {
			t.Fatalf("expected pricing route, got %s", answer.Route)
		}
		if answer.Text != testCatalog().Profile(tc.lang).PricingResponse {
			t.Fatalf("expected %s pricing response, got %q", tc.lang, answer.Text)
		}
		if f.local.calls != 0 || f.web.calls != 0 || len(f.synthesizer.requests) != 0 {
			t.Fatalf("pricing must skip retrieval and synthesis")
		}
	}
}

func TestOrchestratorIsIdempotent(t *testing.T) {
	f := newFixture()
	f.local.result = usable(domain.SourceManual, "ctx")
	f.judge.verdict = true
	o := f.build(domain.StrategyJudged, nil)
	req := domain.AskRequest{Question: "O que é compressão?"}

	first, err := o.Ask(context.Background(), req)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	second, err := o.Ask(context.Background(), req)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if *first != *second {
		t.Fatalf("expected identical answers, got %+v and %+v", first, second)
	}
}

func TestOrchestratorRejectsEmptyQuestion(t *testing.T) {
	f := newFixture()
	_, err := f.build(domain.StrategyJudged, nil).Ask(context.Background(), domain.AskRequest{Question: "   "})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if f.local.calls != 0 {
		t.Fatalf("expected no retrieval for malformed request")
	}
}

func TestOrchestratorConfigurationMessages(t *testing.T) {
	cases := []struct {
		unavailable error
		route       domain.Route
		text        string
	}{
		{domain.ErrNotConfigured, domain.RouteNotConfigured, testCatalog().Profile("pt").NotConfigured},
		{domain.ErrKnowledgeUnavailable, domain.RouteKnowledgeUnavailable, testCatalog().Profile("pt").KnowledgeUnavailable},
	}
	for _, tc := range cases {
		f := newFixture()
		answer, err := f.build(domain.StrategyJudged, tc.unavailable).Ask(context.Background(), domain.AskRequest{Question: "O que é compressão?"})
		if err != nil {
			t.Fatalf("Ask() error = %v", err)
		}
		if answer.Route != tc.route || answer.Text != tc.text {
			t.Fatalf("got route=%s text=%q", answer.Route, answer.Text)
		}
		if f.local.calls != 0 || f.web.calls != 0 {
			t.Fatalf("expected no retrieval when unavailable")
		}
	}
}

func TestOrchestratorSynthesisFailureApologises(t *testing.T) {
	f := newFixture()
	f.local.result = usable(domain.SourceManual, "ctx")
	f.judge.verdict = true
	f.synthesizer.err = errors.New("llm down")

	answer, err := f.build(domain.StrategyJudged, nil).Ask(context.Background(), domain.AskRequest{Question: "O que é compressão?"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Route != domain.RouteTransportError || answer.Text != testCatalog().Profile("pt").TransportError {
		t.Fatalf("expected transport error message, got %+v", answer)
	}
}

func TestOrchestratorTrimsHistory(t *testing.T) {
	f := newFixture()
	f.local.result = usable(domain.SourceManual, "ctx")
	f.judge.verdict = true

	history := make([]domain.Turn, 0, 10)
	for i := 0; i < 10; i++ {
		history = append(history, domain.Turn{Role: domain.RoleUser, Content: strings.Repeat("x", i+1)})
	}
	o := NewOrchestrator(OrchestratorDeps{
		Local: f.local, Web: f.web, Judge: f.judge, Synthesizer: f.synthesizer, Catalog: testCatalog(),
	}, OrchestratorConfig{HistoryTurns: 4})

	if _, err := o.Ask(context.Background(), domain.AskRequest{Question: "q", History: history}); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	got := f.synthesizer.requests[0].History
	if len(got) != 4 || got[0].Content != strings.Repeat("x", 7) {
		t.Fatalf("expected last 4 turns, got %+v", got)
	}
}

func TestOrchestratorDetectEscalatesOnFallbackSentence(t *testing.T) {
	f := newFixture()
	f.local.result = usable(domain.SourceManual, "whole manual")
	f.web.result = usable(domain.SourceWeb, "web text")
	f.synthesizer.replies = []string{
		"não encontrei informações sobre isso na fonte consultada.",
		"resposta da web",
	}

	answer, err := f.build(domain.StrategyDetect, nil).Ask(context.Background(), domain.AskRequest{Question: "O que é compressão?"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Route != domain.RouteWeb || answer.Text != "resposta da web" {
		t.Fatalf("expected web answer, got %+v", answer)
	}
	if f.judge.calls != 0 {
		t.Fatalf("detect strategy must not call the judge")
	}
}

func TestOrchestratorDetectAnswersLocally(t *testing.T) {
	f := newFixture()
	f.local.result = usable(domain.SourceManual, "whole manual")
	f.synthesizer.replies = []string{"resposta do manual"}

	answer, err := f.build(domain.StrategyDetect, nil).Ask(context.Background(), domain.AskRequest{Question: "O que é compressão?"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Route != domain.RouteLocal || f.web.calls != 0 {
		t.Fatalf("expected local answer without web, got %+v web calls=%d", answer, f.web.calls)
	}
}

func TestOrchestratorDossierCombinesSources(t *testing.T) {
	f := newFixture()
	f.local.result = usable(domain.SourceManual, "manual text")
	f.web.result = usable(domain.SourceWeb, "web text")

	answer, err := f.build(domain.StrategyDossier, nil).Ask(context.Background(), domain.AskRequest{Question: "q"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Route != domain.RouteDossier {
		t.Fatalf("expected dossier route, got %s", answer.Route)
	}
	ctxs := f.synthesizer.requests[0].Contexts
	if len(ctxs) != 2 || ctxs[0].Source != domain.SourceManual || ctxs[1].Source != domain.SourceWeb {
		t.Fatalf("expected manual then web contexts, got %+v", ctxs)
	}
}

func TestOrchestratorDossierNothingFound(t *testing.T) {
	f := newFixture()
	answer, err := f.build(domain.StrategyDossier, nil).Ask(context.Background(), domain.AskRequest{Question: "O que é compressão?"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Route != domain.RouteNothingFound || answer.Text != testCatalog().Profile("pt").NothingFound {
		t.Fatalf("expected nothing-found answer, got %+v", answer)
	}
}

type hangingRetriever struct{}

func (hangingRetriever) Retrieve(ctx context.Context, _ string) (domain.RetrievalResult, error) {
	<-ctx.Done()
	return domain.NoContext(domain.SourceManual), ctx.Err()
}

type hangingJudge struct{}

func (hangingJudge) IsRelevant(ctx context.Context, _, _ string) (bool, error) {
	<-ctx.Done()
	return true, ctx.Err()
}

type hangingSynthesizer struct{}

func (hangingSynthesizer) Synthesize(ctx context.Context, _ domain.SynthesisRequest) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestOrchestratorStageTimeouts(t *testing.T) {
	timeouts := OrchestratorConfig{
		Strategy:         domain.StrategyJudged,
		RetrievalTimeout: 20 * time.Millisecond,
		WebTimeout:       20 * time.Millisecond,
		JudgeTimeout:     20 * time.Millisecond,
		SynthesisTimeout: 20 * time.Millisecond,
	}

	t.Run("hung local tier escalates to web", func(t *testing.T) {
		f := newFixture()
		f.web.result = usable(domain.SourceWeb, "web text")
		o := NewOrchestrator(OrchestratorDeps{
			Local: hangingRetriever{}, Web: f.web, Judge: f.judge, Synthesizer: f.synthesizer, Catalog: testCatalog(),
		}, timeouts)

		answer, err := o.Ask(context.Background(), domain.AskRequest{Question: "q"})
		if err != nil {
			t.Fatalf("Ask() error = %v", err)
		}
		if answer.Route != domain.RouteWeb || f.web.calls != 1 {
			t.Fatalf("expected web route, got %s (web calls %d)", answer.Route, f.web.calls)
		}
	})

	t.Run("hung judge counts as not relevant", func(t *testing.T) {
		f := newFixture()
		f.local.result = usable(domain.SourceManual, "manual text")
		f.web.result = usable(domain.SourceWeb, "web text")
		o := NewOrchestrator(OrchestratorDeps{
			Local: f.local, Web: f.web, Judge: hangingJudge{}, Synthesizer: f.synthesizer, Catalog: testCatalog(),
		}, timeouts)

		answer, err := o.Ask(context.Background(), domain.AskRequest{Question: "q"})
		if err != nil {
			t.Fatalf("Ask() error = %v", err)
		}
		if answer.Route != domain.RouteWeb {
			t.Fatalf("expected escalation to web, got %s", answer.Route)
		}
	})

	t.Run("hung synthesizer apologises", func(t *testing.T) {
		f := newFixture()
		f.web.result = usable(domain.SourceWeb, "web text")
		o := NewOrchestrator(OrchestratorDeps{
			Local: f.local, Web: f.web, Judge: f.judge, Synthesizer: hangingSynthesizer{}, Catalog: testCatalog(),
		}, timeouts)

		started := time.Now()
		answer, err := o.Ask(context.Background(), domain.AskRequest{Question: "Who won the 1970 World Cup?"})
		if err != nil {
			t.Fatalf("Ask() error = %v", err)
		}
		if answer.Route != domain.RouteTransportError || answer.Text != testCatalog().Profile("en").TransportError {
			t.Fatalf("expected transport error message, got %s %q", answer.Route, answer.Text)
		}
		if elapsed := time.Since(started); elapsed > time.Second {
			t.Fatalf("synthesis timeout not applied, took %s", elapsed)
		}
	})
}
