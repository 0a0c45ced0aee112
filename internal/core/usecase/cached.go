package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
	"github.com/kirillkom/expert-assistant/internal/core/ports"
)

// CachedRetriever memoizes usable retrievals. Misses and failures always
// reach the next retriever. Cache errors count as a cache miss.
type CachedRetriever struct {
	next      ports.ContextRetriever
	cache     ports.Cache
	namespace string
	ttl       time.Duration
}

func NewCachedRetriever(next ports.ContextRetriever, cache ports.Cache, namespace string, ttl time.Duration) *CachedRetriever {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedRetriever{next: next, cache: cache, namespace: namespace, ttl: ttl}
}

func (r *CachedRetriever) Retrieve(ctx context.Context, question string) (domain.RetrievalResult, error) {
	key := cacheKey(r.namespace, question)
	if raw, ok, err := r.cache.Get(ctx, key); err == nil && ok {
		var cached domain.RetrievalResult
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached, nil
		}
	}

	result, err := r.next.Retrieve(ctx, question)
	if err != nil || !result.Usable {
		return result, err
	}
	if payload, err := json.Marshal(result); err == nil {
		_ = r.cache.Set(ctx, key, string(payload), r.ttl)
	}
	return result, nil
}

// CachedJudge memoizes verdicts per question and context.
type CachedJudge struct {
	next  ports.RelevanceJudge
	cache ports.Cache
	ttl   time.Duration
}

func NewCachedJudge(next ports.RelevanceJudge, cache ports.Cache, ttl time.Duration) *CachedJudge {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedJudge{next: next, cache: cache, ttl: ttl}
}

func (j *CachedJudge) IsRelevant(ctx context.Context, question, candidate string) (bool, error) {
	key := cacheKey("judge", question, candidate)
	if raw, ok, err := j.cache.Get(ctx, key); err == nil && ok {
		return raw == "1", nil
	}

	verdict, err := j.next.IsRelevant(ctx, question, candidate)
	if err != nil {
		return false, err
	}
	value := "0"
	if verdict {
		value = "1"
	}
	_ = j.cache.Set(ctx, key, value, j.ttl)
	return verdict, nil
}

func cacheKey(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(fold(strings.TrimSpace(p))))
		h.Write([]byte{0})
	}
	return namespace + ":" + hex.EncodeToString(h.Sum(nil))
}
