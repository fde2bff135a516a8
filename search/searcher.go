package search

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/poiesic/medsearch/config"
	"github.com/poiesic/medsearch/core"
	"github.com/poiesic/medsearch/normalize"
	"github.com/poiesic/medsearch/semantic"
	"github.com/poiesic/medsearch/tfidf"
)

// HybridQuery combines free text, a symptom list and an optional cluster
// restriction. Any part may be empty.
type HybridQuery struct {
	Text     string
	Symptoms []string
	Clusters []string
}

// corpusIndex is the immutable state produced by one Build.
type corpusIndex struct {
	diseases []core.EnrichedDisease
	byID     map[string]int
	legacy   *tfidf.Index
	weighted *tfidf.WeightedIndex
}

func (ci *corpusIndex) disease(id string) *core.EnrichedDisease {
	return &ci.diseases[ci.byID[id]]
}

// clusterFilter returns a candidate predicate for clusters, or nil when
// clusters is empty.
func (ci *corpusIndex) clusterFilter(clusters []string) func(string) bool {
	if len(clusters) == 0 {
		return nil
	}
	return func(id string) bool {
		return ci.disease(id).HasCluster(clusters...)
	}
}

// Searcher answers disease queries over an enriched corpus.
type Searcher struct {
	cfg        *config.Config
	normalizer *normalize.Normalizer
	matcher    *semantic.Matcher
	logger     *slog.Logger
	state      atomic.Pointer[corpusIndex]
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher. The normalizer must be the one the
// corpus was enriched with. A nil cfg uses config.DefaultConfig().
// Invalid configuration fails here, never at query time.
func NewSearcher(normalizer *normalize.Normalizer, cfg *config.Config, opts ...Option) (*Searcher, error) {
	if normalizer == nil {
		return nil, ErrNormalizerRequired
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	matcher, err := semantic.New(normalizer,
		semantic.WithBoost(cfg.DiscriminantBoostFactor, cfg.DiscriminantBoostCap),
		semantic.WithClusterBonus(cfg.ClusterBonusWeight),
	)
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		cfg:        cfg,
		normalizer: normalizer,
		matcher:    matcher,
		logger:     slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Config returns the configuration the searcher was created with.
func (s *Searcher) Config() *config.Config {
	return s.cfg
}

// Built reports whether Build has completed successfully.
func (s *Searcher) Built() bool {
	return s.state.Load() != nil
}

// Len returns the number of indexed diseases.
func (s *Searcher) Len() int {
	st := s.state.Load()
	if st == nil {
		return 0
	}
	return len(st.diseases)
}

// Disease returns the indexed disease with the given id.
func (s *Searcher) Disease(id string) (core.EnrichedDisease, bool) {
	st := s.state.Load()
	if st == nil {
		return core.EnrichedDisease{}, false
	}
	i, ok := st.byID[id]
	if !ok {
		return core.EnrichedDisease{}, false
	}
	return st.diseases[i], true
}

// Build indexes diseases for every search mode. The previous indices, if
// any, stay queryable until the new ones are complete. On error or
// cancellation the searcher is left unchanged.
func (s *Searcher) Build(ctx context.Context, diseases []core.EnrichedDisease) error {
	st := &corpusIndex{
		diseases: slices.Clone(diseases),
		byID:     make(map[string]int, len(diseases)),
	}
	legacyDocs := make([]tfidf.Document, len(diseases))
	fieldDocs := make([]tfidf.FieldDocument, len(diseases))
	for i, d := range st.diseases {
		if _, dup := st.byID[d.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateDisease, d.ID)
		}
		st.byID[d.ID] = i
		legacyDocs[i] = tfidf.Document{ID: d.ID, Text: d.SearchableText}
		fieldDocs[i] = tfidf.FieldDocument{ID: d.ID, Core: d.CoreText, Context: d.ContextText}
	}

	opts := s.indexOptions()

	var err error
	st.legacy, err = tfidf.Build(ctx, legacyDocs, opts...)
	if err != nil {
		s.logger.Error("error building searchable text index", "err", err)
		return err
	}
	st.weighted, err = tfidf.BuildWeighted(ctx, fieldDocs, opts...)
	if err != nil {
		s.logger.Error("error building field indices", "err", err)
		return err
	}

	s.state.Store(st)
	s.logger.Info("search indices built",
		"diseases", len(st.diseases),
		"vocabulary", st.legacy.VocabularySize(),
		"coreVocabulary", st.weighted.Core().VocabularySize(),
		"contextVocabulary", st.weighted.Context().VocabularySize())
	return nil
}

func (s *Searcher) indexOptions() []tfidf.Option {
	opts := []tfidf.Option{
		tfidf.WithNGramRange(s.cfg.NGramMin, s.cfg.NGramMax),
		tfidf.WithMinDocumentFrequency(s.cfg.MinDocumentFrequency),
		tfidf.WithMaxDocumentRatio(s.cfg.MaxDocumentRatio),
		tfidf.WithMaxFeatures(s.cfg.MaxFeatures),
		tfidf.WithAnalyzer(s.normalizer.Normalize),
		tfidf.WithLogger(s.logger),
	}
	if s.cfg.PoolSize > 0 {
		opts = append(opts, tfidf.WithPoolSize(s.cfg.PoolSize))
	}
	return opts
}

// ready returns the built state or core.ErrInvalidState.
func (s *Searcher) ready(ctx context.Context) (*corpusIndex, error) {
	st := s.state.Load()
	if st == nil {
		return nil, fmt.Errorf("%w: search indices not built", core.ErrInvalidState)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return st, nil
}

// TFIDFSearch ranks diseases by cosine similarity between text and their
// searchable text, dropping results below the similarity threshold.
// topK <= 0 returns every result above the threshold.
func (s *Searcher) TFIDFSearch(ctx context.Context, text string, topK int) ([]core.SearchResult, error) {
	st, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	if isBlank(text) {
		return []core.SearchResult{}, nil
	}
	return s.rankText(st, text, nil, topK)
}

// ClusterFilterSearch is TFIDFSearch restricted to diseases carrying weight
// in at least one of clusters. Scores come from the global index, so a
// disease scores the same with or without the filter. No clusters means no
// candidates.
func (s *Searcher) ClusterFilterSearch(ctx context.Context, text string, clusters []string, topK int) ([]core.SearchResult, error) {
	st, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	clusters = cleanTerms(clusters)
	if isBlank(text) || len(clusters) == 0 {
		return []core.SearchResult{}, nil
	}
	return s.rankText(st, text, st.clusterFilter(clusters), topK)
}

func (s *Searcher) rankText(st *corpusIndex, text string, keep func(string) bool, topK int) ([]core.SearchResult, error) {
	q, err := st.legacy.Vectorize(text)
	if err != nil {
		return nil, err
	}
	hits, err := st.legacy.RankVector(q, keep, 0)
	if err != nil {
		return nil, err
	}
	return s.tfidfResults(hits, topK), nil
}

// WeightedTFIDFSearch ranks diseases by
// coreWeight*sim(core text) + contextWeight*sim(context text), dropping
// results below the similarity threshold. Weights are used as given.
func (s *Searcher) WeightedTFIDFSearch(ctx context.Context, text string, topK int, coreWeight, contextWeight float64) ([]core.SearchResult, error) {
	st, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	if err := tfidf.ValidateWeights(coreWeight, contextWeight); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConfiguration, err)
	}
	if isBlank(text) {
		return []core.SearchResult{}, nil
	}
	hits, err := st.weighted.Rank(text, 0, coreWeight, contextWeight)
	if err != nil {
		return nil, err
	}
	return s.tfidfResults(hits, topK), nil
}

func (s *Searcher) tfidfResults(hits []tfidf.Hit, topK int) []core.SearchResult {
	results := make([]core.SearchResult, 0, len(hits))
	for _, h := range hits {
		if h.Score < s.cfg.SimilarityThreshold {
			continue
		}
		results = append(results, core.SearchResult{
			DiseaseID:    h.DocID,
			FinalScore:   h.Score,
			Breakdown:    core.ScoreBreakdown{TFIDF: h.Score},
			MatchedTerms: h.Terms,
		})
	}
	return truncate(results, topK)
}

// SemanticSearch ranks diseases by the boosted Jaccard similarity between
// the canonical forms of symptoms and each disease's normalized symptoms,
// dropping results below the minimum Jaccard score.
func (s *Searcher) SemanticSearch(ctx context.Context, symptoms []string, topK int) ([]core.SearchResult, error) {
	st, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	q := s.matcher.Prepare(symptoms)
	if q.IsEmpty() {
		return []core.SearchResult{}, nil
	}

	results := make([]core.SearchResult, 0)
	for i := range st.diseases {
		m := s.matcher.Score(q, &st.diseases[i])
		if m.Score <= 0 || m.Score < s.cfg.MinJaccardScore {
			continue
		}
		results = append(results, core.SearchResult{
			DiseaseID:  st.diseases[i].ID,
			FinalScore: m.Score,
			Breakdown: core.ScoreBreakdown{
				Semantic:     m.Score,
				ClusterBonus: m.ClusterBonus,
			},
			MatchedTerms: m.MatchedTerms,
		})
	}
	sortResults(results)
	return truncate(results, topK), nil
}

// HybridSearch combines the TF-IDF and semantic signals as
// tfidfWeight*tfidf + semanticWeight*semantic. Clusters restrict the
// candidates of both signals. Neither signal is thresholded on its own;
// the similarity threshold applies to the combined score.
func (s *Searcher) HybridSearch(ctx context.Context, query HybridQuery, topK int) ([]core.SearchResult, error) {
	return s.HybridSearchWithMonitor(ctx, query, topK, nil)
}

// HybridSearchWithMonitor is HybridSearch with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) HybridSearchWithMonitor(ctx context.Context, query HybridQuery, topK int, monitor SearchMonitor) ([]core.SearchResult, error) {
	st, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query)

	clusters := cleanTerms(query.Clusters)
	keep := st.clusterFilter(clusters)
	if keep != nil {
		var candidates []string
		for _, d := range st.diseases {
			if keep(d.ID) {
				candidates = append(candidates, d.ID)
			}
		}
		monitor.AfterCandidateFilter(candidates)
	}

	combined := make(map[string]*core.SearchResult)
	entry := func(id string) *core.SearchResult {
		r, ok := combined[id]
		if !ok {
			r = &core.SearchResult{DiseaseID: id}
			combined[id] = r
		}
		return r
	}

	// 1. TF-IDF component
	var hits []tfidf.Hit
	if !isBlank(query.Text) {
		hits, err = s.hybridTFIDF(st, query.Text, keep)
		if err != nil {
			s.logger.Error("error ranking query text", "err", err)
			return nil, err
		}
	}
	monitor.AfterTFIDFSearch(hits)
	for _, h := range hits {
		r := entry(h.DocID)
		r.Breakdown.TFIDF = h.Score
		r.MatchedTerms = h.Terms
	}

	// 2. Semantic component
	q := s.matcher.Prepare(query.Symptoms)
	var semanticIDs []string
	if !q.IsEmpty() {
		for i := range st.diseases {
			d := &st.diseases[i]
			if keep != nil && !keep(d.ID) {
				continue
			}
			m := s.matcher.Score(q, d)
			if m.Score <= 0 {
				continue
			}
			semanticIDs = append(semanticIDs, d.ID)
			r := entry(d.ID)
			r.Breakdown.Semantic = m.Score
			r.Breakdown.ClusterBonus = m.ClusterBonus
			r.MatchedTerms = mergeTerms(r.MatchedTerms, m.MatchedTerms)
		}
	}
	monitor.AfterSemanticSearch(q, semanticIDs)

	// 3. Combine and threshold
	results := make([]core.SearchResult, 0, len(combined))
	for _, r := range combined {
		r.FinalScore = s.cfg.HybridTFIDFWeight*r.Breakdown.TFIDF + s.cfg.HybridSemanticWeight*r.Breakdown.Semantic
		if r.FinalScore <= 0 || r.FinalScore < s.cfg.SimilarityThreshold {
			continue
		}
		switch {
		case r.Breakdown.TFIDF > 0 && r.Breakdown.Semantic > 0:
			monitor.TFIDFAndSemanticHit(*r)
		case r.Breakdown.TFIDF > 0:
			monitor.TFIDFHit(*r)
		default:
			monitor.SemanticHit(*r)
		}
		results = append(results, *r)
	}

	sortResults(results)
	results = truncate(results, topK)
	monitor.Finish(results)

	s.logger.Debug("hybrid search",
		"text", query.Text,
		"symptoms", len(query.Symptoms),
		"clusters", clusters,
		"tfidfHits", len(hits),
		"semanticHits", len(semanticIDs),
		"results", len(results))
	return results, nil
}

func (s *Searcher) hybridTFIDF(st *corpusIndex, text string, keep func(string) bool) ([]tfidf.Hit, error) {
	if s.cfg.UseWeightedFields {
		return st.weighted.RankFiltered(text, keep, 0, s.cfg.CoreWeight, s.cfg.ContextWeight)
	}
	q, err := st.legacy.Vectorize(text)
	if err != nil {
		return nil, err
	}
	return st.legacy.RankVector(q, keep, 0)
}

// DiseasesWithSymptom returns the ids, in ascending order, of diseases whose
// normalized symptoms contain the canonical form of symptom.
func (s *Searcher) DiseasesWithSymptom(ctx context.Context, symptom string) ([]string, error) {
	st, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	term := s.normalizer.Canonicalize(symptom).Term
	ids := []string{}
	if term == "" {
		return ids, nil
	}
	for _, d := range st.diseases {
		if slices.Contains(d.NormalizedSymptoms, term) {
			ids = append(ids, d.ID)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// sortResults orders results by descending final score, then ascending id.
func sortResults(results []core.SearchResult) {
	slices.SortFunc(results, func(a, b core.SearchResult) int {
		if c := cmp.Compare(b.FinalScore, a.FinalScore); c != 0 {
			return c
		}
		return cmp.Compare(a.DiseaseID, b.DiseaseID)
	})
}

func truncate(results []core.SearchResult, topK int) []core.SearchResult {
	if topK > 0 && len(results) > topK {
		return results[:topK]
	}
	return results
}
