package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kirillkom/expert-assistant/internal/config"
	"github.com/kirillkom/expert-assistant/internal/core/domain"
	"github.com/kirillkom/expert-assistant/internal/observability/metrics"
)

func TestRateLimitRejectsBurstWithRetryAfter(t *testing.T) {
	fake := &assistantFake{}
	handler := newTestHandler(t, config.Config{APIRateLimitRPS: 1, APIRateLimitBurst: 1}, fake)
	question := map[string]any{"question": "O que é compressão de áudio?"}

	if res := postJSON(handler, "/v1/ask", question); res.Code != http.StatusOK {
		t.Fatalf("first ask expected 200, got %d", res.Code)
	}
	res := postJSON(handler, "/v1/ask", question)
	if res.Code != http.StatusTooManyRequests || res.Header().Get("Retry-After") == "" {
		t.Fatalf("second ask expected 429 with Retry-After, got %d %q", res.Code, res.Header().Get("Retry-After"))
	}
	if fake.calls != 1 {
		t.Fatalf("rejected ask must not reach the assistant, calls=%d", fake.calls)
	}

	health := httptest.NewRecorder()
	handler.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if health.Code != http.StatusOK {
		t.Fatalf("healthz must bypass the limiter, got %d", health.Code)
	}
}

// blockingAssistant holds every question until release is closed.
type blockingAssistant struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingAssistant) Ask(ctx context.Context, _ domain.AskRequest) (*domain.Answer, error) {
	b.started <- struct{}{}
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &domain.Answer{Text: "ok", Route: domain.RouteLocal}, nil
}

func TestBackpressureShedsAskWhenSaturated(t *testing.T) {
	assistant := &blockingAssistant{started: make(chan struct{}, 1), release: make(chan struct{})}
	router, err := NewRouter(config.Config{
		APIMaxInFlight:      1,
		APIBackpressureWait: 20 * time.Millisecond,
	}, assistant, metrics.NewHTTPServerMetrics(serviceName))
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	handler := router.Handler()
	question := map[string]any{"question": "Como ajusto o limiter?"}

	done := make(chan int, 1)
	go func() { done <- postJSON(handler, "/ask", question).Code }()
	<-assistant.started

	res := postJSON(handler, "/ask", question)
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while saturated, got %d", res.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil || body["error"] == "" {
		t.Fatalf("expected overload error body, got %q (%v)", res.Body.String(), err)
	}

	close(assistant.release)
	select {
	case code := <-done:
		if code != http.StatusOK {
			t.Fatalf("first ask expected 200, got %d", code)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for first ask")
	}
}
