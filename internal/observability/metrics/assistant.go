package metrics

import (
	"context"
	"time"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
	"github.com/kirillkom/expert-assistant/internal/core/ports"
)

type instrumentedAssistant struct {
	next    ports.Assistant
	metrics *HTTPServerMetrics
	service string
	surface string
}

// InstrumentAssistant counts answers by final route for one delivery surface.
func InstrumentAssistant(next ports.Assistant, m *HTTPServerMetrics, service, surface string) ports.Assistant {
	if m == nil {
		return next
	}
	return &instrumentedAssistant{next: next, metrics: m, service: service, surface: surface}
}

func (a *instrumentedAssistant) Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error) {
	start := time.Now()
	answer, err := a.next.Ask(ctx, req)
	route := ""
	if err == nil && answer != nil {
		route = string(answer.Route)
	}
	a.metrics.RecordAnswer(a.service, a.surface, route, time.Since(start))
	return answer, err
}

type instrumentedJudge struct {
	next    ports.RelevanceJudge
	metrics *HTTPServerMetrics
	service string
}

func InstrumentJudge(next ports.RelevanceJudge, m *HTTPServerMetrics, service string) ports.RelevanceJudge {
	if m == nil || next == nil {
		return next
	}
	return &instrumentedJudge{next: next, metrics: m, service: service}
}

func (j *instrumentedJudge) IsRelevant(ctx context.Context, question, candidate string) (bool, error) {
	relevant, err := j.next.IsRelevant(ctx, question, candidate)
	j.metrics.RecordJudgeVerdict(j.service, relevant, err)
	return relevant, err
}
