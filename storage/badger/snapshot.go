package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/medsearch/core"
	"github.com/poiesic/medsearch/storage"
)

// SnapshotRepository implements storage.SnapshotRepository for BadgerDB.
type SnapshotRepository struct {
	backend *Backend
}

var _ storage.SnapshotRepository = (*SnapshotRepository)(nil)

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(backend *Backend) *SnapshotRepository {
	return &SnapshotRepository{
		backend: backend,
	}
}

// SaveSnapshot stores a snapshot under its name and stamps UpdatedAt.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, snapshot *core.Snapshot) error {
	return r.backend.update(ctx, func(tx *badger.Txn) error {
		snapshot.UpdatedAt = time.Now().UTC()
		value, err := storage.MarshalSnapshot(snapshot)
		if err != nil {
			return err
		}
		if err := tx.Set(makeSnapshotKey(snapshot.Name), value); err != nil {
			return err
		}
		return nil
	})
}

// LoadSnapshot retrieves a snapshot by name.
// Returns nil, nil if no snapshot exists.
func (r *SnapshotRepository) LoadSnapshot(ctx context.Context, name string) (*core.Snapshot, error) {
	var snapshot *core.Snapshot
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		snapshot, err = readValue(tx, makeSnapshotKey(name), storage.UnmarshalSnapshot)
		return err
	}, false)
	return snapshot, err
}
