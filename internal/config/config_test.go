package config

import (
	"testing"
	"time"
)

func TestLoadIncludesRetrievalDefaults(t *testing.T) {
	t.Setenv("LOCAL_TOP_K", "")
	t.Setenv("LOCAL_MAX_DISTANCE", "")
	t.Setenv("WEB_MIN_CHARS", "")
	t.Setenv("ASSISTANT_STRATEGY", "")
	t.Setenv("RETRIEVAL_MODE", "")
	t.Setenv("HISTORY_TURNS", "")

	cfg := Load()
	if cfg.LocalTopK != 3 {
		t.Fatalf("expected default top k 3, got %d", cfg.LocalTopK)
	}
	if cfg.LocalMaxDistance != 1.2 {
		t.Fatalf("expected default max distance 1.2, got %v", cfg.LocalMaxDistance)
	}
	if cfg.WebMinChars != 100 {
		t.Fatalf("expected default web min chars 100, got %d", cfg.WebMinChars)
	}
	if cfg.AssistantStrategy != "judged" {
		t.Fatalf("expected default strategy judged, got %q", cfg.AssistantStrategy)
	}
	if cfg.RetrievalMode != "vector" {
		t.Fatalf("expected default retrieval mode vector, got %q", cfg.RetrievalMode)
	}
	if cfg.HistoryTurns != 6 {
		t.Fatalf("expected default history turns 6, got %d", cfg.HistoryTurns)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("LOCAL_MAX_DISTANCE", "1.0")
	t.Setenv("WEB_LOOSE_MATCH", "true")
	t.Setenv("ASSISTANT_STRATEGY", "dossier")
	t.Setenv("JUDGE_TIMEOUT", "5s")
	t.Setenv("WEB_TIMEOUT", "12")
	t.Setenv("HISTORY_TURNS", "4")

	cfg := Load()
	if cfg.LocalMaxDistance != 1.0 {
		t.Fatalf("expected max distance override, got %v", cfg.LocalMaxDistance)
	}
	if !cfg.WebLooseMatch {
		t.Fatalf("expected loose web match")
	}
	if cfg.AssistantStrategy != "dossier" {
		t.Fatalf("expected strategy override, got %q", cfg.AssistantStrategy)
	}
	if cfg.JudgeTimeout != 5*time.Second {
		t.Fatalf("expected judge timeout 5s, got %v", cfg.JudgeTimeout)
	}
	if cfg.WebTimeout != 12*time.Second {
		t.Fatalf("expected bare seconds to parse, got %v", cfg.WebTimeout)
	}
	if cfg.HistoryTurns != 4 {
		t.Fatalf("expected history turns 4, got %d", cfg.HistoryTurns)
	}
}

func TestLoadFallsBackOnMalformedValues(t *testing.T) {
	t.Setenv("LOCAL_TOP_K", "three")
	t.Setenv("LOCAL_MAX_DISTANCE", "far")
	t.Setenv("SYNTHESIS_TIMEOUT", "soon")

	cfg := Load()
	if cfg.LocalTopK != 3 || cfg.LocalMaxDistance != 1.2 || cfg.SynthesisTimeout != time.Minute {
		t.Fatalf("expected defaults on malformed values, got %d %v %v", cfg.LocalTopK, cfg.LocalMaxDistance, cfg.SynthesisTimeout)
	}
}

func TestAnswerDeadlineCoversStrategy(t *testing.T) {
	cfg := Config{
		RetrievalTimeout: 15 * time.Second,
		WebTimeout:       30 * time.Second,
		JudgeTimeout:     20 * time.Second,
		SynthesisTimeout: 60 * time.Second,
	}
	cases := map[string]time.Duration{
		"judged":  130 * time.Second,
		"":        130 * time.Second,
		"detect":  170 * time.Second,
		"Dossier": 110 * time.Second,
	}
	for strategy, want := range cases {
		cfg.AssistantStrategy = strategy
		if got := cfg.AnswerDeadline(); got != want {
			t.Fatalf("AnswerDeadline(%q) = %v, want %v", strategy, got, want)
		}
	}
}
