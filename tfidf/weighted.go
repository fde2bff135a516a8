package tfidf

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/poiesic/medsearch/core"
)

// FieldDocument carries the two weighted text fields of one document.
type FieldDocument struct {
	ID      string
	Core    string
	Context string
}

// WeightedIndex pairs independently vocabularied indices over the core and
// context fields of the same documents.
type WeightedIndex struct {
	core    *Index
	context *Index
}

// BuildWeighted builds the core and context indices with the same options.
func BuildWeighted(ctx context.Context, docs []FieldDocument, opts ...Option) (*WeightedIndex, error) {
	coreDocs := make([]Document, len(docs))
	contextDocs := make([]Document, len(docs))
	for i, d := range docs {
		coreDocs[i] = Document{ID: d.ID, Text: d.Core}
		contextDocs[i] = Document{ID: d.ID, Text: d.Context}
	}

	coreIx, err := Build(ctx, coreDocs, opts...)
	if err != nil {
		return nil, fmt.Errorf("core field: %w", err)
	}
	contextIx, err := Build(ctx, contextDocs, opts...)
	if err != nil {
		return nil, fmt.Errorf("context field: %w", err)
	}
	return &WeightedIndex{core: coreIx, context: contextIx}, nil
}

// Core returns the core field index.
func (w *WeightedIndex) Core() *Index {
	if w == nil {
		return nil
	}
	return w.core
}

// Context returns the context field index.
func (w *WeightedIndex) Context() *Index {
	if w == nil {
		return nil
	}
	return w.context
}

// ValidateWeights rejects negative or non-finite field weights.
func ValidateWeights(weights ...float64) error {
	for _, v := range weights {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %v", ErrInvalidWeights, weights)
		}
	}
	return nil
}

// Rank scores text against both fields and combines them as
// coreWeight*core + contextWeight*context. Weights are applied as given.
func (w *WeightedIndex) Rank(text string, topK int, coreWeight, contextWeight float64) ([]Hit, error) {
	return w.RankFiltered(text, nil, topK, coreWeight, contextWeight)
}

// RankFiltered is Rank restricted to documents accepted by keep.
func (w *WeightedIndex) RankFiltered(text string, keep func(docID string) bool, topK int, coreWeight, contextWeight float64) ([]Hit, error) {
	if w == nil || w.core.ready() != nil || w.context.ready() != nil {
		return nil, fmt.Errorf("%w: weighted index not built", core.ErrInvalidState)
	}
	if err := ValidateWeights(coreWeight, contextWeight); err != nil {
		return nil, err
	}
	if !slices.Equal(w.core.docIDs, w.context.docIDs) {
		return nil, ErrMismatchedFields
	}

	qc, err := w.core.Vectorize(text)
	if err != nil {
		return nil, err
	}
	qx, err := w.context.Vectorize(text)
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for i, id := range w.core.docIDs {
		if keep != nil && !keep(id) {
			continue
		}
		s := coreWeight*w.core.docs[i].Dot(qc) + contextWeight*w.context.docs[i].Dot(qx)
		if s <= 0 {
			continue
		}
		terms := append(w.core.termNames(w.core.docs[i].shared(qc)), w.context.termNames(w.context.docs[i].shared(qx))...)
		slices.Sort(terms)
		hits = append(hits, Hit{DocID: id, Score: s, Terms: slices.Compact(terms)})
	}
	SortHits(hits)
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}
