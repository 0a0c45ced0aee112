package usecase

import (
	"context"
	"errors"
	"testing"
)

func TestJudgeEmptyContextMakesNoCall(t *testing.T) {
	completer := &completerFake{replies: []string{"SIM"}}
	judge := NewLLMRelevanceJudge(completer)

	ok, err := judge.IsRelevant(context.Background(), "q", "  \n ")
	if err != nil {
		t.Fatalf("IsRelevant() error = %v", err)
	}
	if ok {
		t.Fatalf("expected empty context to be not relevant")
	}
	if completer.calls() != 0 {
		t.Fatalf("expected zero model calls, got %d", completer.calls())
	}
}

func TestJudgeParsesVerdict(t *testing.T) {
	cases := []struct {
		reply string
		want  bool
	}{
		{"SIM", true},
		{"Sim.", true},
		{"yes", true},
		{"Sí, es relevante", true},
		{"NÃO", false},
		{"Não, mas sim parcialmente", false},
		{"No", false},
		{"Talvez", false},
		{"", false},
	}
	for _, tc := range cases {
		completer := &completerFake{replies: []string{tc.reply}}
		got, err := NewLLMRelevanceJudge(completer).IsRelevant(context.Background(), "q", "ctx")
		if err != nil {
			t.Fatalf("IsRelevant(%q) error = %v", tc.reply, err)
		}
		if got != tc.want {
			t.Fatalf("reply %q: got %v, want %v", tc.reply, got, tc.want)
		}
		if completer.temps[0] != 0 {
			t.Fatalf("expected temperature 0, got %v", completer.temps[0])
		}
	}
}

func TestJudgeFailsClosedOnError(t *testing.T) {
	judge := NewLLMRelevanceJudge(&completerFake{err: errors.New("llm down")})
	ok, err := judge.IsRelevant(context.Background(), "q", "ctx")
	if err == nil {
		t.Fatalf("expected error")
	}
	if ok {
		t.Fatalf("expected not relevant on error")
	}
}
