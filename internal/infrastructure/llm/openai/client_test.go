package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
)

func TestCompleterPostsChatCompletion(t *testing.T) {
	var got chatRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" SIM "}}]}`))
	}))
	defer server.Close()

	c := NewCompleter(Options{BaseURL: server.URL, APIKey: "secret"}, nil)
	reply, err := c.Complete(context.Background(), "prompt", 0)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if reply != "SIM" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if auth != "Bearer secret" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if got.Model != DefaultModel || got.Temperature == nil || *got.Temperature != 0 {
		t.Fatalf("unexpected request %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "prompt" {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
}

func TestCompleterOmitsDefaultTemperature(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	c := NewCompleter(Options{BaseURL: server.URL}, nil)
	if _, err := c.Complete(context.Background(), "prompt", domain.ProviderDefaultTemperature); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if _, ok := raw["temperature"]; ok {
		t.Fatalf("temperature must be omitted, got %v", raw["temperature"])
	}
}

func TestCompleterRateLimitIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewCompleter(Options{BaseURL: server.URL}, nil).Complete(context.Background(), "p", 0)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
}
