package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
)

// Index is an exact flat index over squared L2 distance.
type Index struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
}

func New(store *domain.PassageStore) *Index {
	idx := &Index{}
	if store != nil {
		idx.dimension = store.Dimension
		idx.vectors = store.Vectors
	}
	return idx
}

func (i *Index) Replace(_ context.Context, store *domain.PassageStore) error {
	if err := store.Validate(); err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.dimension = store.Dimension
	i.vectors = store.Vectors
	return nil
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.vectors)
}

func (i *Index) Search(_ context.Context, queryVector []float32, limit int) ([]domain.Neighbor, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if len(i.vectors) == 0 {
		return nil, nil
	}
	if len(queryVector) != i.dimension {
		return nil, domain.WrapError(domain.ErrIndexMismatch, "search memory index",
			fmt.Errorf("query dimension %d, index dimension %d", len(queryVector), i.dimension))
	}
	if limit <= 0 {
		limit = 3
	}

	out := make([]domain.Neighbor, len(i.vectors))
	for ordinal, v := range i.vectors {
		out[ordinal] = domain.Neighbor{Ordinal: ordinal, Distance: squaredL2(v, queryVector)}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Distance < out[b].Distance })

	if limit > len(out) {
		limit = len(out)
	}
	return out[:limit], nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
