package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
	"github.com/kirillkom/expert-assistant/internal/core/ports"
)

type OrchestratorConfig struct {
	Strategy         domain.Strategy
	HistoryTurns     int
	RetrievalTimeout time.Duration
	WebTimeout       time.Duration
	JudgeTimeout     time.Duration
	SynthesisTimeout time.Duration
}

// OrchestratorDeps are the collaborators of one immutable assistant.
// Unavailable, when set to domain.ErrNotConfigured or
// domain.ErrKnowledgeUnavailable, makes every non-pricing question return
// the matching fixed message.
type OrchestratorDeps struct {
	Local       ports.ContextRetriever
	Web         ports.ContextRetriever
	Judge       ports.RelevanceJudge
	Synthesizer ports.AnswerSynthesizer
	Catalog     domain.Catalog
	Unavailable error
}

// Orchestrator routes a question through the knowledge tiers.
type Orchestrator struct {
	deps     OrchestratorDeps
	cfg      OrchestratorConfig
	language *LanguageDetector
	pricing  *PricingClassifier
}

func NewOrchestrator(deps OrchestratorDeps, cfg OrchestratorConfig) *Orchestrator {
	if cfg.Strategy == "" {
		cfg.Strategy = domain.StrategyJudged
	}
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = 6
	}
	if cfg.RetrievalTimeout <= 0 {
		cfg.RetrievalTimeout = 15 * time.Second
	}
	if cfg.WebTimeout <= 0 {
		cfg.WebTimeout = 30 * time.Second
	}
	if cfg.JudgeTimeout <= 0 {
		cfg.JudgeTimeout = 20 * time.Second
	}
	if cfg.SynthesisTimeout <= 0 {
		cfg.SynthesisTimeout = 60 * time.Second
	}
	return &Orchestrator{
		deps:     deps,
		cfg:      cfg,
		language: NewLanguageDetector(deps.Catalog),
		pricing:  NewPricingClassifier(deps.Catalog),
	}
}

func (o *Orchestrator) Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("question is required"))
	}

	lang := o.language.Detect(question)
	profile := o.deps.Catalog.Profile(lang)
	answer := func(text string, route domain.Route) *domain.Answer {
		return &domain.Answer{Text: text, Route: route, Language: lang}
	}

	if o.pricing.IsPricingQuestion(question) {
		return answer(profile.PricingResponse, domain.RoutePricing), nil
	}

	switch {
	case errors.Is(o.deps.Unavailable, domain.ErrNotConfigured):
		return answer(profile.NotConfigured, domain.RouteNotConfigured), nil
	case o.deps.Unavailable != nil:
		return answer(profile.KnowledgeUnavailable, domain.RouteKnowledgeUnavailable), nil
	}

	turn := askTurn{
		question: question,
		history:  domain.RecentTurns(req.History, o.cfg.HistoryTurns),
		language: lang,
		profile:  profile,
	}

	var (
		text  string
		route domain.Route
		err   error
	)
	switch o.cfg.Strategy {
	case domain.StrategyDetect:
		text, route, err = o.detectCascade(ctx, turn)
	case domain.StrategyDossier:
		text, route, err = o.dossier(ctx, turn)
	default:
		text, route, err = o.judgedCascade(ctx, turn)
	}
	if err != nil {
		return answer(profile.TransportError, domain.RouteTransportError), nil
	}
	return answer(text, route), nil
}

type askTurn struct {
	question string
	history  []domain.Turn
	language domain.Language
	profile  domain.LanguageProfile
}

// judgedCascade answers from the local tier when the judge accepts it and
// escalates to the web otherwise.
func (o *Orchestrator) judgedCascade(ctx context.Context, turn askTurn) (string, domain.Route, error) {
	local := o.retrieve(ctx, o.deps.Local, o.cfg.RetrievalTimeout, turn.question)
	if local.Usable && o.relevant(ctx, turn.question, local.Context) {
		text, err := o.synthesize(ctx, turn, local)
		return text, domain.RouteLocal, err
	}

	web := o.retrieve(ctx, o.deps.Web, o.cfg.WebTimeout, turn.question)
	if !web.Usable {
		return turn.profile.NothingFound, domain.RouteNothingFound, nil
	}
	text, err := o.synthesize(ctx, turn, web)
	return text, domain.RouteWeb, err
}

// detectCascade answers from the local tier and escalates when the model
// replies with the fallback sentence.
func (o *Orchestrator) detectCascade(ctx context.Context, turn askTurn) (string, domain.Route, error) {
	local := o.retrieve(ctx, o.deps.Local, o.cfg.RetrievalTimeout, turn.question)
	if local.Usable {
		text, err := o.synthesize(ctx, turn, local)
		if err != nil {
			return "", domain.RouteLocal, err
		}
		if !o.deps.Catalog.IsFallbackAnswer(text) {
			return text, domain.RouteLocal, nil
		}
	}

	web := o.retrieve(ctx, o.deps.Web, o.cfg.WebTimeout, turn.question)
	if !web.Usable {
		return turn.profile.NothingFound, domain.RouteNothingFound, nil
	}
	text, err := o.synthesize(ctx, turn, web)
	if err != nil {
		return "", domain.RouteWeb, err
	}
	if o.deps.Catalog.IsFallbackAnswer(text) {
		return turn.profile.NothingFound, domain.RouteNothingFound, nil
	}
	return text, domain.RouteWeb, nil
}

// dossier sends every usable context in one prompt, local first.
func (o *Orchestrator) dossier(ctx context.Context, turn askTurn) (string, domain.Route, error) {
	local := o.retrieve(ctx, o.deps.Local, o.cfg.RetrievalTimeout, turn.question)
	web := o.retrieve(ctx, o.deps.Web, o.cfg.WebTimeout, turn.question)

	usable := make([]domain.RetrievalResult, 0, 2)
	for _, r := range []domain.RetrievalResult{local, web} {
		if r.Usable {
			usable = append(usable, r)
		}
	}
	if len(usable) == 0 {
		return turn.profile.NothingFound, domain.RouteNothingFound, nil
	}
	text, err := o.synthesize(ctx, turn, usable...)
	return text, domain.RouteDossier, err
}

// retrieve runs one tier under its own timeout. Errors are a miss.
func (o *Orchestrator) retrieve(ctx context.Context, retriever ports.ContextRetriever, timeout time.Duration, question string) domain.RetrievalResult {
	if retriever == nil {
		return domain.RetrievalResult{}
	}
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := retriever.Retrieve(stageCtx, question)
	if err != nil {
		return domain.NoContext(result.Source)
	}
	return result
}

func (o *Orchestrator) relevant(ctx context.Context, question, candidate string) bool {
	if o.deps.Judge == nil {
		return false
	}
	stageCtx, cancel := context.WithTimeout(ctx, o.cfg.JudgeTimeout)
	defer cancel()

	ok, err := o.deps.Judge.IsRelevant(stageCtx, question, candidate)
	return err == nil && ok
}

func (o *Orchestrator) synthesize(ctx context.Context, turn askTurn, results ...domain.RetrievalResult) (string, error) {
	contexts := make([]domain.LabeledContext, 0, len(results))
	for _, r := range results {
		contexts = append(contexts, domain.LabeledContext{Source: r.Source, Text: r.Context})
	}
	stageCtx, cancel := context.WithTimeout(ctx, o.cfg.SynthesisTimeout)
	defer cancel()

	return o.deps.Synthesizer.Synthesize(stageCtx, domain.SynthesisRequest{
		Question: turn.question,
		Contexts: contexts,
		History:  turn.history,
		Language: turn.language,
	})
}
