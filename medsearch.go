// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package medsearch opens a persistent disease knowledge base and wires the
// normalization, ingestion, reindexing and search components around it.
package medsearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/medsearch/config"
	"github.com/poiesic/medsearch/core"
	"github.com/poiesic/medsearch/enrich"
	"github.com/poiesic/medsearch/ingestion"
	"github.com/poiesic/medsearch/normalize"
	"github.com/poiesic/medsearch/reindex"
	"github.com/poiesic/medsearch/search"
	"github.com/poiesic/medsearch/storage"
	"github.com/poiesic/medsearch/storage/badger"
	"github.com/poiesic/medsearch/thesaurus"
)

// ErrThesaurusRequired is returned when neither a thesaurus index nor a
// thesaurus path is configured.
var ErrThesaurusRequired = errors.New("thesaurus required")

type KnowledgeBase struct {
	backend        *badger.Backend
	diseaseRepo    *badger.DiseaseRepository
	enrichedRepo   *badger.EnrichedRepository
	snapshotRepo   *badger.SnapshotRepository
	checkpointRepo *badger.CheckpointRepository
	config         *config.Config
	normalizer     *normalize.Normalizer
	enricher       *enrich.Enricher
	logger         *slog.Logger
}

// Option configures a KnowledgeBase.
type Option func(*options)

type options struct {
	config    *config.Config
	thesaurus *thesaurus.Index
	inMemory  bool
	logger    *slog.Logger
}

// WithConfig sets the engine configuration. Default is config.DefaultConfig().
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithThesaurus supplies a prebuilt thesaurus instead of loading
// config.ThesaurusPath.
func WithThesaurus(ix *thesaurus.Index) Option {
	return func(o *options) {
		o.thesaurus = ix
	}
}

// InMemory keeps all data in memory; the file path is ignored.
func InMemory() Option {
	return func(o *options) {
		o.inMemory = true
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Open opens or creates the knowledge base stored at filePath.
func Open(filePath string, opts ...Option) (*KnowledgeBase, error) {
	options := &options{
		config: config.DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.config == nil {
		options.config = config.DefaultConfig()
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	cfg := options.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ix, err := loadThesaurus(cfg, options.thesaurus)
	if err != nil {
		return nil, err
	}

	normOpts := []normalize.Option{
		normalize.WithCacheSize(cfg.CacheSize),
		normalize.WithLogger(options.logger),
	}
	if cfg.WordBoundaryMatching {
		normOpts = append(normOpts, normalize.WithWordBoundaries())
	}
	normalizer, err := normalize.New(ix, normOpts...)
	if err != nil {
		return nil, err
	}

	enricher, err := enrich.New(normalizer,
		enrich.WithDiscriminantKeywords(cfg.DiscriminantKeywords...),
		enrich.WithLogger(options.logger))
	if err != nil {
		normalizer.Close()
		return nil, err
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory, badger.WithLogger(options.logger))
	if err != nil {
		normalizer.Close()
		return nil, err
	}

	return &KnowledgeBase{
		backend:        backend,
		diseaseRepo:    badger.NewDiseaseRepository(backend),
		enrichedRepo:   badger.NewEnrichedRepository(backend),
		snapshotRepo:   badger.NewSnapshotRepository(backend),
		checkpointRepo: badger.NewCheckpointRepository(backend),
		config:         cfg,
		normalizer:     normalizer,
		enricher:       enricher,
		logger:         options.logger,
	}, nil
}

func loadThesaurus(cfg *config.Config, ix *thesaurus.Index) (*thesaurus.Index, error) {
	if ix != nil {
		return ix, nil
	}
	if cfg.ThesaurusPath == "" {
		return nil, ErrThesaurusRequired
	}

	var opts []thesaurus.Option
	if cfg.ClustersPath != "" {
		clusters, err := thesaurus.LoadClusters(cfg.ClustersPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load clusters: %w", err)
		}
		opts = append(opts, thesaurus.WithClusters(clusters))
	}
	return thesaurus.Load(cfg.ThesaurusPath, opts...)
}

func (kb *KnowledgeBase) Close() error {
	kb.normalizer.Close()
	if err := kb.backend.Close(); err != nil {
		kb.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (kb *KnowledgeBase) Config() *config.Config {
	return kb.config
}

func (kb *KnowledgeBase) Normalizer() *normalize.Normalizer {
	return kb.normalizer
}

func (kb *KnowledgeBase) Enricher() *enrich.Enricher {
	return kb.enricher
}

func (kb *KnowledgeBase) DiseaseRepository() storage.DiseaseRepository {
	return kb.diseaseRepo
}

func (kb *KnowledgeBase) EnrichedRepository() storage.EnrichedRepository {
	return kb.enrichedRepo
}

func (kb *KnowledgeBase) SnapshotRepository() storage.SnapshotRepository {
	return kb.snapshotRepo
}

func (kb *KnowledgeBase) CheckpointRepository() storage.CheckpointRepository {
	return kb.checkpointRepo
}

// NewIngestionPipeline creates a pipeline over the knowledge base. The
// configured pool size applies unless opts override it.
func (kb *KnowledgeBase) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base := []ingestion.Option{ingestion.WithLogger(kb.logger)}
	if kb.config.PoolSize > 0 {
		base = append(base, ingestion.WithPoolSize(kb.config.PoolSize))
	}
	return ingestion.NewPipeline(kb.diseaseRepo, kb.enrichedRepo, kb.snapshotRepo, kb.enricher, append(base, opts...)...)
}

func (kb *KnowledgeBase) NewReindexer(pipeline *ingestion.Pipeline, opts ...reindex.Option) (*reindex.Reindexer, error) {
	base := []reindex.Option{reindex.WithLogger(kb.logger)}
	return reindex.NewReindexer(pipeline, kb.diseaseRepo, kb.enrichedRepo, kb.checkpointRepo, append(base, opts...)...)
}

// NewSearcher creates a searcher and builds it from the stored enriched
// corpus. Enriched records produced with another thesaurus are still
// indexed, with a warning; run a reindex to refresh them.
func (kb *KnowledgeBase) NewSearcher(ctx context.Context, opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{search.WithLogger(kb.logger)}
	s, err := search.NewSearcher(kb.normalizer, kb.config, append(base, opts...)...)
	if err != nil {
		return nil, err
	}

	stored, err := kb.enrichedRepo.ListEnriched(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load enriched diseases: %w", err)
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("%w: knowledge base is empty", core.ErrInvalidState)
	}

	version := kb.normalizer.Version()
	diseases := make([]core.EnrichedDisease, len(stored))
	stale := 0
	for i, d := range stored {
		diseases[i] = *d
		if d.ThesaurusVersion != version {
			stale++
		}
	}
	if stale > 0 {
		kb.logger.Warn("enriched diseases were produced with another thesaurus", "stale", stale, "total", len(diseases))
	}

	if err := s.Build(ctx, diseases); err != nil {
		return nil, err
	}
	return s, nil
}
