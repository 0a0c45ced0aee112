package usecase

import (
	"context"
	"sync/atomic"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
	"github.com/kirillkom/expert-assistant/internal/core/ports"
)

type assistantSnapshot struct {
	assistant ports.Assistant
}

// ReloadableAssistant serves questions from the current assistant and lets
// a rebuilt one be swapped in. In-flight questions keep their snapshot.
type ReloadableAssistant struct {
	current atomic.Pointer[assistantSnapshot]
}

func NewReloadableAssistant(initial ports.Assistant) *ReloadableAssistant {
	r := &ReloadableAssistant{}
	r.Swap(initial)
	return r
}

func (r *ReloadableAssistant) Swap(next ports.Assistant) {
	r.current.Store(&assistantSnapshot{assistant: next})
}

func (r *ReloadableAssistant) Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error) {
	return r.current.Load().assistant.Ask(ctx, req)
}
