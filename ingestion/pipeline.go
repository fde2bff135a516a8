package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/medsearch/core"
	"github.com/poiesic/medsearch/corpus"
	"github.com/poiesic/medsearch/enrich"
	"github.com/poiesic/medsearch/storage"
)

// DefaultSnapshotName names the snapshot describing the stored corpus.
const DefaultSnapshotName = "corpus"

// Pipeline orchestrates the ingestion and enrichment of disease records.
type Pipeline struct {
	diseaseRepository  storage.DiseaseRepository
	enrichedRepository storage.EnrichedRepository
	snapshotRepository storage.SnapshotRepository
	enricher           *enrich.Enricher
	pool               *ants.Pool
	snapshotName       string
	logger             *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent enrichment.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithSnapshotName sets the name the corpus snapshot is stored under.
// Default is DefaultSnapshotName.
func WithSnapshotName(name string) Option {
	return func(p *Pipeline) error {
		if name == "" {
			return fmt.Errorf("%w: snapshot name cannot be empty", core.ErrConfiguration)
		}
		p.snapshotName = name
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	diseaseRepository storage.DiseaseRepository,
	enrichedRepository storage.EnrichedRepository,
	snapshotRepository storage.SnapshotRepository,
	enricher *enrich.Enricher,
	opts ...Option,
) (*Pipeline, error) {
	if diseaseRepository == nil {
		return nil, ErrDiseaseRepositoryRequired
	}
	if enrichedRepository == nil {
		return nil, ErrEnrichedRepositoryRequired
	}
	if snapshotRepository == nil {
		return nil, ErrSnapshotRepositoryRequired
	}
	if enricher == nil {
		return nil, ErrEnricherRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		diseaseRepository:  diseaseRepository,
		enrichedRepository: enrichedRepository,
		snapshotRepository: snapshotRepository,
		enricher:           enricher,
		pool:               pool,
		snapshotName:       DefaultSnapshotName,
		logger:             slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	p.logger = p.logger.With("component", "ingestion")
	return p, nil
}

// ThesaurusVersion returns the version of the thesaurus records are enriched with.
func (p *Pipeline) ThesaurusVersion() string {
	return p.enricher.Normalizer().Version()
}

// Snapshot loads the stored corpus snapshot, or nil if nothing was ingested.
func (p *Pipeline) Snapshot(ctx context.Context) (*core.Snapshot, error) {
	return p.snapshotRepository.LoadSnapshot(ctx, p.snapshotName)
}

// Enrich enriches records concurrently without touching storage.
// The result has the same order as records.
func (p *Pipeline) Enrich(ctx context.Context, records []core.DiseaseRecord) ([]core.EnrichedDisease, error) {
	out := make([]core.EnrichedDisease, len(records))
	var wg sync.WaitGroup
	for i := range records {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		if err := p.pool.Submit(func() {
			defer wg.Done()
			out[i] = p.enricher.Enrich(records[i])
		}); err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("failed to schedule enrichment: %w", err)
		}
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Ingest validates, stores and enriches records, then refreshes the corpus
// snapshot. Records replace stored records with the same id. The returned
// snapshot describes the whole stored corpus, not only this batch.
func (p *Pipeline) Ingest(ctx context.Context, records []core.DiseaseRecord) (*core.Snapshot, error) {
	seen := make(map[string]struct{}, len(records))
	for i := range records {
		if err := core.ValidateDisease(&records[i]); err != nil {
			return nil, err
		}
		if _, dup := seen[records[i].ID]; dup {
			return nil, fmt.Errorf("%w: duplicate disease id %q", core.ErrDataIntegrity, records[i].ID)
		}
		seen[records[i].ID] = struct{}{}
	}

	p.logger.Info("enriching diseases", "records", len(records))
	enriched, err := p.Enrich(ctx, records)
	if err != nil {
		return nil, err
	}

	raw := make([]*core.DiseaseRecord, len(records))
	for i := range records {
		raw[i] = &records[i]
	}
	out := make([]*core.EnrichedDisease, len(enriched))
	for i := range enriched {
		out[i] = &enriched[i]
	}

	// Raw and enriched records are committed together or not at all.
	err = p.diseaseRepository.WithTransaction(ctx, func(ctx context.Context) error {
		if err := p.diseaseRepository.PutDiseases(ctx, raw...); err != nil {
			return fmt.Errorf("failed to store diseases: %w", err)
		}
		if err := p.enrichedRepository.SaveEnriched(ctx, out...); err != nil {
			return fmt.Errorf("failed to store enriched diseases: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snapshot, err := p.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	p.logger.Info("ingestion complete",
		"diseases", snapshot.Stats.Diseases,
		"mapped", snapshot.Stats.Mapped,
		"unmapped", snapshot.Stats.Unmapped,
		"clusters", len(snapshot.Stats.UniqueClusters))
	return snapshot, nil
}

// Remove deletes diseases and their enriched forms, then refreshes the snapshot.
func (p *Pipeline) Remove(ctx context.Context, ids ...string) (*core.Snapshot, error) {
	if err := p.diseaseRepository.DeleteDiseases(ctx, ids...); err != nil {
		return nil, err
	}
	p.logger.Info("removed diseases", "records", len(ids))
	return p.Refresh(ctx)
}

// Refresh recomputes the corpus snapshot from storage and saves it.
func (p *Pipeline) Refresh(ctx context.Context) (*core.Snapshot, error) {
	stored, err := p.diseaseRepository.ListDiseases(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list diseases: %w", err)
	}
	records := make([]core.DiseaseRecord, len(stored))
	for i, r := range stored {
		records[i] = *r
	}
	version, err := corpus.Version(records)
	if err != nil {
		return nil, err
	}

	enriched, err := p.enrichedRepository.ListEnriched(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list enriched diseases: %w", err)
	}
	diseases := make([]core.EnrichedDisease, len(enriched))
	for i, d := range enriched {
		diseases[i] = *d
	}

	snapshot := &core.Snapshot{
		Name:             p.snapshotName,
		ThesaurusVersion: p.ThesaurusVersion(),
		CorpusVersion:    version,
		Stats:            enrich.Summarize(diseases),
	}
	if err := p.snapshotRepository.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return snapshot, nil
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
