package domain

import (
	"fmt"
	"time"
)

// Segment is one contiguous span of the knowledge document.
type Segment struct {
	Ordinal int    `json:"ordinal"`
	Text    string `json:"text"`
}

// PassageStore holds the segments of the knowledge document and their
// embeddings. Vectors[i] always belongs to Segments[i]. A store is built
// wholesale by the indexer and only read afterwards.
type PassageStore struct {
	Model     string      `json:"model"`
	Dimension int         `json:"dimension"`
	BuiltAt   time.Time   `json:"built_at"`
	Segments  []Segment   `json:"segments"`
	Vectors   [][]float32 `json:"vectors"`
}

func (s *PassageStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Segments)
}

// Segment returns the segment at the given ordinal.
func (s *PassageStore) Segment(ordinal int) (Segment, error) {
	if s == nil || ordinal < 0 || ordinal >= len(s.Segments) {
		return Segment{}, WrapError(ErrIndexMismatch, "lookup segment", fmt.Errorf("ordinal %d out of range", ordinal))
	}
	return s.Segments[ordinal], nil
}

// Validate checks that segments and vectors line up one to one.
func (s *PassageStore) Validate() error {
	if s == nil {
		return WrapError(ErrIndexNotFound, "validate passage store", fmt.Errorf("store is nil"))
	}
	if len(s.Vectors) != 0 && len(s.Vectors) != len(s.Segments) {
		return WrapError(ErrIndexMismatch, "validate passage store",
			fmt.Errorf("segments=%d vectors=%d", len(s.Segments), len(s.Vectors)))
	}
	for i, seg := range s.Segments {
		if seg.Ordinal != i {
			return WrapError(ErrIndexMismatch, "validate passage store",
				fmt.Errorf("segment %d has ordinal %d", i, seg.Ordinal))
		}
	}
	for i, vec := range s.Vectors {
		if len(vec) != s.Dimension {
			return WrapError(ErrIndexMismatch, "validate passage store",
				fmt.Errorf("vector %d has dimension %d, want %d", i, len(vec), s.Dimension))
		}
	}
	return nil
}

// Neighbor is a search hit. Distance is squared L2 and smaller is closer.
type Neighbor struct {
	Ordinal  int     `json:"ordinal"`
	Distance float64 `json:"distance"`
}

// KnowledgeBase is what the assistant knows offline: the raw document used
// for full-document context and the passage store built from it.
type KnowledgeBase struct {
	Document string
	Store    *PassageStore
}

func (k *KnowledgeBase) Empty() bool {
	return k == nil || (k.Document == "" && k.Store.Len() == 0)
}

// IndexReport describes a finished index build. It is also the payload of
// the index-rebuilt event.
type IndexReport struct {
	SourcePath string    `json:"source_path"`
	Model      string    `json:"model"`
	Segments   int       `json:"segments"`
	Dimension  int       `json:"dimension"`
	BuiltAt    time.Time `json:"built_at"`
}
