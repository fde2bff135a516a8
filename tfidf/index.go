package tfidf

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"slices"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/medsearch/core"
)

// Document is one unit of indexed text.
type Document struct {
	ID   string
	Text string
}

// Hit is a ranked document.
type Hit struct {
	DocID string
	Score float64
	// Terms lists the vocabulary terms shared by the query and the document.
	Terms []string
}

type config struct {
	ngramMin         int
	ngramMax         int
	minDF            int
	maxDocumentRatio float64
	maxFeatures      int
	analyzer         Analyzer
	poolSize         int
	logger           *slog.Logger
}

// Option configures index construction.
type Option func(*config) error

// WithNGramRange sets the inclusive n-gram length range. Default is 1 to 3.
func WithNGramRange(lo, hi int) Option {
	return func(c *config) error {
		if lo < 1 || hi < lo {
			return fmt.Errorf("%w: n-gram range [%d, %d]", core.ErrConfiguration, lo, hi)
		}
		c.ngramMin, c.ngramMax = lo, hi
		return nil
	}
}

// WithMinDocumentFrequency drops terms found in fewer than n documents. Default is 2.
func WithMinDocumentFrequency(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return fmt.Errorf("%w: minimum document frequency %d", core.ErrConfiguration, n)
		}
		c.minDF = n
		return nil
	}
}

// WithMaxDocumentRatio drops terms present in more than ratio of all documents.
// Default is 1.0, which keeps every term.
func WithMaxDocumentRatio(ratio float64) Option {
	return func(c *config) error {
		if !(ratio > 0 && ratio <= 1) {
			return fmt.Errorf("%w: maximum document ratio %v", core.ErrConfiguration, ratio)
		}
		c.maxDocumentRatio = ratio
		return nil
	}
}

// WithMaxFeatures keeps only the n terms with the highest corpus frequency.
// Zero, the default, keeps all terms.
func WithMaxFeatures(n int) Option {
	return func(c *config) error {
		if n < 0 {
			return fmt.Errorf("%w: maximum features %d", core.ErrConfiguration, n)
		}
		c.maxFeatures = n
		return nil
	}
}

// WithAnalyzer sets the text preparation applied to documents and queries.
func WithAnalyzer(fn Analyzer) Option {
	return func(c *config) error {
		c.analyzer = fn
		return nil
	}
}

// WithPoolSize sets the worker pool size used during construction.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(c *config) error {
		if size < 1 {
			size = 1
		}
		c.poolSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

func newConfig(opts []Option) (*config, error) {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	c := &config{
		ngramMin:         1,
		ngramMax:         3,
		minDF:            2,
		maxDocumentRatio: 1.0,
		poolSize:         poolSize,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Index is an immutable TF-IDF vector space over a fixed document set.
// The zero value is an unbuilt index; every query on it fails with
// core.ErrInvalidState. A built Index is safe for concurrent use.
type Index struct {
	cfg    *config
	vocab  map[string]int
	terms  []string
	idf    []float64
	docIDs []string
	docPos map[string]int
	docs   []Vector
	built  bool
}

// Build tokenizes docs in parallel, derives the vocabulary and IDF weights,
// and stores one unit-length vector per document. The returned index is
// complete; on error or cancellation no index is returned.
func Build(ctx context.Context, docs []Document, opts ...Option) (*Index, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	docPos := make(map[string]int, len(docs))
	docIDs := make([]string, len(docs))
	for i, d := range docs {
		if _, dup := docPos[d.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDocument, d.ID)
		}
		docPos[d.ID] = i
		docIDs[i] = d.ID
	}

	pool, err := ants.NewPool(cfg.poolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	// Count terms per document in parallel; each task writes only its own slot.
	counts := make([]map[string]int, len(docs))
	err = runEach(ctx, pool, len(docs), func(i int) {
		counts[i] = cfg.termCounts(docs[i].Text)
	})
	if err != nil {
		return nil, err
	}

	// Merge in document order.
	df := make(map[string]int)
	totals := make(map[string]int)
	for _, c := range counts {
		for term, n := range c {
			df[term]++
			totals[term] += n
		}
	}

	terms := cfg.selectTerms(df, totals, len(docs))
	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(docs))
	for i, t := range terms {
		vocab[t] = i
		idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	ix := &Index{
		cfg:    cfg,
		vocab:  vocab,
		terms:  terms,
		idf:    idf,
		docIDs: docIDs,
		docPos: docPos,
		docs:   make([]Vector, len(docs)),
	}

	err = runEach(ctx, pool, len(docs), func(i int) {
		ix.docs[i] = ix.weigh(counts[i])
	})
	if err != nil {
		return nil, err
	}

	ix.built = true
	cfg.logger.Debug("tf-idf index built",
		"documents", len(docs),
		"candidateTerms", len(df),
		"vocabulary", len(terms))
	if len(terms) == 0 && len(docs) > 0 {
		cfg.logger.Warn("tf-idf vocabulary is empty after pruning",
			"documents", len(docs),
			"minDocumentFrequency", cfg.minDF)
	}
	return ix, nil
}

// runEach runs fn(i) for i in [0, n) on pool and waits for completion.
// Tasks observe ctx before doing any work.
func runEach(ctx context.Context, pool *ants.Pool, n int, fn func(i int)) error {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return err
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			fn(i)
		})
		if submitErr != nil {
			wg.Done()
			wg.Wait()
			return submitErr
		}
	}
	wg.Wait()
	return ctx.Err()
}

// selectTerms applies document-frequency pruning and the feature cap, and
// returns the surviving terms in lexical order.
func (c *config) selectTerms(df, totals map[string]int, docCount int) []string {
	maxDF := float64(docCount) * c.maxDocumentRatio
	kept := make([]string, 0, len(df))
	for term, f := range df {
		if f < c.minDF {
			continue
		}
		if c.maxDocumentRatio < 1 && float64(f) > maxDF {
			continue
		}
		kept = append(kept, term)
	}

	if c.maxFeatures > 0 && len(kept) > c.maxFeatures {
		slices.SortFunc(kept, func(a, b string) int {
			if d := cmp.Compare(totals[b], totals[a]); d != 0 {
				return d
			}
			return cmp.Compare(a, b)
		})
		kept = kept[:c.maxFeatures]
	}

	slices.Sort(kept)
	return kept
}

// weigh turns raw counts into a unit-length TF-IDF vector over the vocabulary.
func (ix *Index) weigh(counts map[string]int) Vector {
	var v Vector
	for term := range counts {
		id, ok := ix.vocab[term]
		if !ok {
			continue
		}
		v.Terms = append(v.Terms, id)
	}
	slices.Sort(v.Terms)
	v.Weights = make([]float64, len(v.Terms))
	for i, id := range v.Terms {
		v.Weights[i] = float64(counts[ix.terms[id]]) * ix.idf[id]
	}
	return v.unit()
}

func (ix *Index) ready() error {
	if ix == nil || !ix.built {
		return fmt.Errorf("%w: tf-idf index not built", core.ErrInvalidState)
	}
	return nil
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.docIDs)
}

// VocabularySize returns the number of retained terms.
func (ix *Index) VocabularySize() int {
	if ix == nil {
		return 0
	}
	return len(ix.terms)
}

// DocIDs returns the indexed document ids in build order.
func (ix *Index) DocIDs() []string {
	if ix == nil {
		return nil
	}
	return slices.Clone(ix.docIDs)
}

// Vectorize maps text into the index's vector space. Terms outside the
// vocabulary contribute nothing; the result has unit length unless no term
// is known, in which case it is the zero vector.
func (ix *Index) Vectorize(text string) (Vector, error) {
	if err := ix.ready(); err != nil {
		return Vector{}, err
	}
	return ix.weigh(ix.cfg.termCounts(text)), nil
}

// Score returns the cosine similarity between a document and a query vector.
func (ix *Index) Score(docID string, q Vector) (float64, error) {
	if err := ix.ready(); err != nil {
		return 0, err
	}
	i, ok := ix.docPos[docID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownDocument, docID)
	}
	return ix.docs[i].Dot(q), nil
}

// Scores returns the similarity of every document to q, aligned with DocIDs.
func (ix *Index) Scores(q Vector) ([]float64, error) {
	if err := ix.ready(); err != nil {
		return nil, err
	}
	out := make([]float64, len(ix.docs))
	for i, d := range ix.docs {
		out[i] = d.Dot(q)
	}
	return out, nil
}

// MatchedTerms lists the vocabulary terms a document shares with q, sorted.
func (ix *Index) MatchedTerms(docID string, q Vector) ([]string, error) {
	if err := ix.ready(); err != nil {
		return nil, err
	}
	i, ok := ix.docPos[docID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, docID)
	}
	return ix.termNames(ix.docs[i].shared(q)), nil
}

func (ix *Index) termNames(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = ix.terms[id]
	}
	return out
}

// Rank scores every document against text and returns the positive hits in
// descending score order, ties broken by ascending document id.
// topK <= 0 returns all hits.
func (ix *Index) Rank(text string, topK int) ([]Hit, error) {
	q, err := ix.Vectorize(text)
	if err != nil {
		return nil, err
	}
	return ix.RankVector(q, nil, topK)
}

// RankVector ranks documents against q. When keep is non-nil only documents
// it accepts are considered; the vector space itself is unchanged.
func (ix *Index) RankVector(q Vector, keep func(docID string) bool, topK int) ([]Hit, error) {
	if err := ix.ready(); err != nil {
		return nil, err
	}
	if q.IsZero() {
		return nil, nil
	}

	var hits []Hit
	for i, d := range ix.docs {
		id := ix.docIDs[i]
		if keep != nil && !keep(id) {
			continue
		}
		s := d.Dot(q)
		if s <= 0 {
			continue
		}
		hits = append(hits, Hit{DocID: id, Score: s, Terms: ix.termNames(d.shared(q))})
	}
	SortHits(hits)
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// SortHits orders hits by descending score, then ascending document id.
func SortHits(hits []Hit) {
	slices.SortFunc(hits, func(a, b Hit) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.DocID, b.DocID)
	})
}
