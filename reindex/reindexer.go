package reindex

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/medsearch/core"
	"github.com/poiesic/medsearch/ingestion"
	"github.com/poiesic/medsearch/storage"
	"github.com/poiesic/medsearch/storage/badger"
)

// Config holds configuration for a reindex run.
type Config struct {
	// BatchSize is the number of diseases processed per batch.
	BatchSize int

	// ReportInterval is how often progress is reported, in diseases.
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each storage write.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration

	// Force reindexes even when every enriched record is current.
	Force bool
}

// DefaultConfig returns a Config with the default batch and retry settings.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: DefaultBatchSize,
		MaxRetries:     5,
		RetryDelay:     50 * time.Millisecond,
	}
}

// Result summarizes a reindex run.
type Result struct {
	// Processed counts diseases re-enriched during this run.
	Processed int
	// Resumed is set when the run continued from a checkpoint.
	Resumed bool
	// UpToDate is set when nothing needed reindexing.
	UpToDate bool
	Snapshot *core.Snapshot
	Elapsed  time.Duration
}

// Reindexer re-enriches every stored disease with the pipeline's thesaurus.
type Reindexer struct {
	pipeline    *ingestion.Pipeline
	diseases    storage.DiseaseRepository
	enriched    storage.EnrichedRepository
	checkpoints storage.CheckpointRepository
	config      *Config
	progress    io.Writer
	retryable   func(error) bool
	logger      *slog.Logger
}

// Option configures a Reindexer.
type Option func(*Reindexer) error

// WithConfig replaces the default configuration.
func WithConfig(cfg *Config) Option {
	return func(r *Reindexer) error {
		if cfg == nil {
			cfg = DefaultConfig()
		}
		if cfg.MaxRetries < 1 {
			return fmt.Errorf("%w: max retries must be at least 1, got %d", core.ErrConfiguration, cfg.MaxRetries)
		}
		if cfg.RetryDelay < 0 {
			return fmt.Errorf("%w: retry delay cannot be negative", core.ErrConfiguration)
		}
		r.config = cfg
		return nil
	}
}

// WithProgress sets where progress lines are written.
// Default discards progress output.
func WithProgress(w io.Writer) Option {
	return func(r *Reindexer) error {
		r.progress = w
		return nil
	}
}

// WithRetryable sets which storage errors are retried.
// Default retries badger transaction conflicts.
func WithRetryable(fn func(error) bool) Option {
	return func(r *Reindexer) error {
		r.retryable = fn
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reindexer) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewReindexer creates a new reindexer.
func NewReindexer(
	pipeline *ingestion.Pipeline,
	diseases storage.DiseaseRepository,
	enriched storage.EnrichedRepository,
	checkpoints storage.CheckpointRepository,
	opts ...Option,
) (*Reindexer, error) {
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	if diseases == nil {
		return nil, ErrDiseaseRepositoryRequired
	}
	if enriched == nil {
		return nil, ErrEnrichedRepositoryRequired
	}
	if checkpoints == nil {
		return nil, ErrCheckpointRepositoryRequired
	}

	r := &Reindexer{
		pipeline:    pipeline,
		diseases:    diseases,
		enriched:    enriched,
		checkpoints: checkpoints,
		config:      DefaultConfig(),
		progress:    io.Discard,
		retryable:   badger.IsConflict,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "reindex")
	return r, nil
}

// processorType keys checkpoints by thesaurus version, so a checkpoint left
// by a run against another thesaurus is never resumed.
func (r *Reindexer) processorType() string {
	return "reindex:" + r.pipeline.ThesaurusVersion()
}

// Stale reports whether the stored enrichment was produced with a thesaurus
// other than the pipeline's, or whether any enriched record is missing.
func (r *Reindexer) Stale(ctx context.Context) (bool, error) {
	version := r.pipeline.ThesaurusVersion()

	snapshot, err := r.pipeline.Snapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snapshot != nil && snapshot.ThesaurusVersion != version {
		return true, nil
	}

	stale, err := r.enriched.StaleEnriched(ctx, version)
	if err != nil {
		return false, fmt.Errorf("failed to check enriched records: %w", err)
	}
	if len(stale) > 0 {
		return true, nil
	}

	count, err := r.diseases.CountDiseases(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count diseases: %w", err)
	}
	if snapshot == nil {
		return count > 0, nil
	}
	return snapshot.Stats.Diseases != count, nil
}

// Run re-enriches every stored disease in batches and refreshes the corpus
// snapshot. A run interrupted after some batches resumes after the last
// checkpointed record.
func (r *Reindexer) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	processorType := r.processorType()

	checkpoint, err := r.checkpoints.LoadCheckpoint(ctx, processorType)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	if checkpoint == nil && !r.config.Force {
		stale, err := r.Stale(ctx)
		if err != nil {
			return nil, err
		}
		if !stale {
			r.logger.Info("enriched corpus is up to date")
			return &Result{UpToDate: true, Elapsed: time.Since(started)}, nil
		}
	}

	total, err := r.diseases.CountDiseases(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count diseases: %w", err)
	}

	var after core.ID
	result := &Result{}
	if checkpoint != nil {
		after = checkpoint.LastID
		result.Resumed = true
		r.logger.Info("resuming reindex from checkpoint", "after", after, "updated", checkpoint.UpdatedAt)
	}

	r.logger.Info("starting reindex", "diseases", total, "batchSize", r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processor := NewBatchProcessor(r.pipeline, r.enriched, r.checkpoints, RetryPolicy{
		MaxAttempts: r.config.MaxRetries,
		BaseDelay:   r.config.RetryDelay,
		Retryable:   r.retryable,
		Logger:      r.logger,
	})
	iterator := NewDiseaseIterator(r.diseases, r.config.BatchSize)

	err = iterator.ForEach(ctx, after, func(batch []*core.DiseaseRecord) error {
		if err := processor.Process(ctx, processorType, batch); err != nil {
			return err
		}
		result.Processed += len(batch)
		tracker.Increment(len(batch))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reindex stopped after %d diseases: %w", result.Processed, err)
	}
	tracker.Finish()

	snapshot, err := r.pipeline.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.checkpoints.DeleteCheckpoint(ctx, processorType); err != nil {
		return nil, fmt.Errorf("failed to clear checkpoint: %w", err)
	}

	result.Snapshot = snapshot
	result.Elapsed = time.Since(started)
	r.logger.Info("reindex complete",
		"processed", result.Processed, "resumed", result.Resumed, "elapsed", result.Elapsed.Round(time.Millisecond))
	return result, nil
}
