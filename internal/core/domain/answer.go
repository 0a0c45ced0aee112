package domain

import (
	"fmt"
	"strings"
)

// Strategy selects how the assistant escalates between knowledge tiers.
type Strategy string

const (
	// StrategyJudged asks a relevance judge before answering from each tier.
	StrategyJudged Strategy = "judged"
	// StrategyDetect answers from the document first and falls back to the
	// web when the model replies with the fallback sentence.
	StrategyDetect Strategy = "detect"
	// StrategyDossier sends local and web context together in one prompt.
	StrategyDossier Strategy = "dossier"
)

func ParseStrategy(raw string) (Strategy, error) {
	switch s := Strategy(strings.ToLower(strings.TrimSpace(raw))); s {
	case "":
		return StrategyJudged, nil
	case StrategyJudged, StrategyDetect, StrategyDossier:
		return s, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse strategy", fmt.Errorf("unknown strategy %q", raw))
	}
}

// Route records which branch produced an answer.
type Route string

const (
	RoutePricing              Route = "pricing"
	RouteLocal                Route = "local"
	RouteWeb                  Route = "web"
	RouteDossier              Route = "dossier"
	RouteNothingFound         Route = "nothing_found"
	RouteNotConfigured        Route = "not_configured"
	RouteKnowledgeUnavailable Route = "knowledge_unavailable"
	RouteTransportError       Route = "transport_error"
)

type AskRequest struct {
	Question string `json:"question"`
	History  []Turn `json:"history,omitempty"`
}

type Answer struct {
	Text     string   `json:"answer"`
	Route    Route    `json:"-"`
	Language Language `json:"-"`
}

// SynthesisRequest carries everything the answer prompt is built from.
type SynthesisRequest struct {
	Question string
	Contexts []LabeledContext
	History  []Turn
	Language Language
}

// ProviderDefaultTemperature tells a completer to use its own default.
const ProviderDefaultTemperature = -1.0
