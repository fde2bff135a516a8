package reindex

import (
	"context"
	"fmt"

	"github.com/poiesic/medsearch/core"
	"github.com/poiesic/medsearch/ingestion"
	"github.com/poiesic/medsearch/storage"
)

// BatchProcessor re-enriches one batch of diseases and records progress.
type BatchProcessor struct {
	pipeline    *ingestion.Pipeline
	enriched    storage.EnrichedRepository
	checkpoints storage.CheckpointRepository
	policy      RetryPolicy
}

// NewBatchProcessor creates a batch processor. Writes are retried according to policy.
func NewBatchProcessor(pipeline *ingestion.Pipeline, enriched storage.EnrichedRepository, checkpoints storage.CheckpointRepository, policy RetryPolicy) *BatchProcessor {
	return &BatchProcessor{
		pipeline:    pipeline,
		enriched:    enriched,
		checkpoints: checkpoints,
		policy:      policy,
	}
}

// Process enriches records, saves them and then checkpoints the key of the
// last record under processorType.
func (bp *BatchProcessor) Process(ctx context.Context, processorType string, records []*core.DiseaseRecord) error {
	if len(records) == 0 {
		return nil
	}

	raw := make([]core.DiseaseRecord, len(records))
	for i, r := range records {
		raw[i] = *r
	}
	enriched, err := bp.pipeline.Enrich(ctx, raw)
	if err != nil {
		return fmt.Errorf("failed to enrich batch: %w", err)
	}
	out := make([]*core.EnrichedDisease, len(enriched))
	for i := range enriched {
		out[i] = &enriched[i]
	}

	err = RetryWithBackoff(ctx, bp.policy, func() error {
		return bp.enriched.SaveEnriched(ctx, out...)
	})
	if err != nil {
		return fmt.Errorf("failed to save enriched batch: %w", err)
	}

	checkpoint := &core.Checkpoint{
		ProcessorType: processorType,
		LastID:        records[len(records)-1].Key(),
	}
	err = RetryWithBackoff(ctx, bp.policy, func() error {
		return bp.checkpoints.SaveCheckpoint(ctx, checkpoint)
	})
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}
