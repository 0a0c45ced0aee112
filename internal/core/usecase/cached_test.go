package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
)

func TestCachedRetrieverServesSecondCallFromCache(t *testing.T) {
	next := &retrieverFake{result: usable(domain.SourceWeb, "web text")}
	cache := newCacheFake()
	r := NewCachedRetriever(next, cache, "web", time.Minute)

	for i := 0; i < 2; i++ {
		result, err := r.Retrieve(context.Background(), "Compressão?")
		if err != nil {
			t.Fatalf("Retrieve() error = %v", err)
		}
		if result.Context != "web text" || !result.Usable {
			t.Fatalf("unexpected result %+v", result)
		}
	}
	if next.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", next.calls)
	}
}

func TestCachedRetrieverDoesNotCacheErrors(t *testing.T) {
	next := &retrieverFake{err: errors.New("search down")}
	cache := newCacheFake()
	r := NewCachedRetriever(next, cache, "web", time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := r.Retrieve(context.Background(), "q"); err == nil {
			t.Fatalf("expected error")
		}
	}
	if next.calls != 2 || cache.sets != 0 {
		t.Fatalf("expected no caching on error, calls=%d sets=%d", next.calls, cache.sets)
	}
}

func TestCachedRetrieverDoesNotCacheMisses(t *testing.T) {
	next := &retrieverFake{result: domain.NoContext(domain.SourceWeb)}
	cache := newCacheFake()
	r := NewCachedRetriever(next, cache, "web", time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := r.Retrieve(context.Background(), "q"); err != nil {
			t.Fatalf("Retrieve() error = %v", err)
		}
	}
	if next.calls != 2 || cache.sets != 0 {
		t.Fatalf("expected misses to reach upstream, calls=%d sets=%d", next.calls, cache.sets)
	}
}

func TestCachedRetrieverFallsThroughOnCacheError(t *testing.T) {
	next := &retrieverFake{result: usable(domain.SourceWeb, "web text")}
	cache := newCacheFake()
	cache.getErr = errors.New("redis down")

	result, err := NewCachedRetriever(next, cache, "web", 0).Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if result.Context != "web text" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCachedJudgeRemembersVerdict(t *testing.T) {
	next := &judgeFake{verdict: true}
	j := NewCachedJudge(next, newCacheFake(), time.Minute)

	for i := 0; i < 3; i++ {
		ok, err := j.IsRelevant(context.Background(), "q", "ctx")
		if err != nil {
			t.Fatalf("IsRelevant() error = %v", err)
		}
		if !ok {
			t.Fatalf("expected cached true verdict")
		}
	}
	if next.calls != 1 {
		t.Fatalf("expected one judge call, got %d", next.calls)
	}

	if _, err := j.IsRelevant(context.Background(), "q", "other ctx"); err != nil {
		t.Fatalf("IsRelevant() error = %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("expected context to be part of the key, got %d calls", next.calls)
	}
}

func TestReloadableAssistantSwap(t *testing.T) {
	first := newFixture()
	first.local.result = usable(domain.SourceManual, "v1")
	first.judge.verdict = true
	second := newFixture()
	second.local.result = usable(domain.SourceManual, "v2")
	second.judge.verdict = true

	r := NewReloadableAssistant(first.build(domain.StrategyJudged, nil))
	if _, err := r.Ask(context.Background(), domain.AskRequest{Question: "q"}); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	r.Swap(second.build(domain.StrategyJudged, nil))
	if _, err := r.Ask(context.Background(), domain.AskRequest{Question: "q"}); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if first.local.calls != 1 || second.local.calls != 1 {
		t.Fatalf("expected one call per snapshot, got %d/%d", first.local.calls, second.local.calls)
	}
}
