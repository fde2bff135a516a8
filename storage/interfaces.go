package storage

import (
	"context"

	"github.com/poiesic/medsearch/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the repository.
	Close() error
}

// DiseaseRepository provides operations for raw disease records.
type DiseaseRepository interface {
	Repository
	// PutDiseases stores records, replacing any record with the same id.
	// Returns ErrDuplicateKey if a different id already occupies the key.
	PutDiseases(ctx context.Context, records ...*core.DiseaseRecord) error

	// GetDisease retrieves a single record by id.
	// Returns ErrNotFound if the record doesn't exist.
	GetDisease(ctx context.Context, id string) (*core.DiseaseRecord, error)

	// GetDiseases retrieves multiple records by id.
	// Returns only the records that exist (no error for missing records).
	GetDiseases(ctx context.Context, ids ...string) ([]*core.DiseaseRecord, error)

	// ListDiseases returns up to limit records whose key is greater than
	// after, in key order. Pass 0 to start from the beginning; limit <= 0
	// returns every remaining record.
	ListDiseases(ctx context.Context, after core.ID, limit int) ([]*core.DiseaseRecord, error)

	// DeleteDiseases removes records by id together with their enriched forms.
	// Returns ErrNotFound if any record doesn't exist.
	DeleteDiseases(ctx context.Context, ids ...string) error

	// CountDiseases returns the number of stored records.
	CountDiseases(ctx context.Context) (int, error)
}

// EnrichedRepository provides operations for enriched diseases.
type EnrichedRepository interface {
	Repository
	// SaveEnriched stores enriched diseases, replacing existing ones.
	SaveEnriched(ctx context.Context, diseases ...*core.EnrichedDisease) error

	// GetEnriched retrieves a single enriched disease by id.
	// Returns ErrNotFound if it doesn't exist.
	GetEnriched(ctx context.Context, id string) (*core.EnrichedDisease, error)

	// ListEnriched returns every enriched disease in ascending id order.
	ListEnriched(ctx context.Context) ([]*core.EnrichedDisease, error)

	// StaleEnriched returns, in ascending order, the ids of enriched diseases
	// produced with a thesaurus version other than version.
	StaleEnriched(ctx context.Context, version string) ([]string, error)
}

// SnapshotRepository persists corpus snapshots.
type SnapshotRepository interface {
	// SaveSnapshot stores a snapshot under its name and stamps UpdatedAt.
	SaveSnapshot(ctx context.Context, snapshot *core.Snapshot) error

	// LoadSnapshot retrieves a snapshot by name.
	// Returns nil, nil if no snapshot exists.
	LoadSnapshot(ctx context.Context, name string) (*core.Snapshot, error)
}

// CheckpointRepository persists batch processor progress.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint for a processor type.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a processor type.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error)

	// DeleteCheckpoint removes the checkpoint for a processor type.
	// Deleting a missing checkpoint is not an error.
	DeleteCheckpoint(ctx context.Context, processorType string) error
}
