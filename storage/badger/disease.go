package badger

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/medsearch/core"
	"github.com/poiesic/medsearch/storage"
)

// DiseaseRepository implements storage.DiseaseRepository for BadgerDB.
type DiseaseRepository struct {
	backend *Backend
}

var _ storage.DiseaseRepository = (*DiseaseRepository)(nil)

// NewDiseaseRepository creates a new DiseaseRepository.
func NewDiseaseRepository(backend *Backend) *DiseaseRepository {
	return &DiseaseRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend owns the database handle.
func (r *DiseaseRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *DiseaseRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutDiseases stores records, replacing any record with the same id.
func (r *DiseaseRepository) PutDiseases(ctx context.Context, records ...*core.DiseaseRecord) error {
	return r.backend.update(ctx, func(tx *badger.Txn) error {
		for _, record := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := makeDiseaseKey(record.Key())

			existing, err := readValue(tx, key, storage.UnmarshalDisease)
			if err != nil {
				return err
			}
			if existing != nil && existing.ID != record.ID {
				return fmt.Errorf("%w: %q collides with %q", storage.ErrDuplicateKey, record.ID, existing.ID)
			}

			value, err := storage.MarshalDisease(record)
			if err != nil {
				return err
			}
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetDisease retrieves a single record by id.
func (r *DiseaseRepository) GetDisease(ctx context.Context, id string) (*core.DiseaseRecord, error) {
	var result *core.DiseaseRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readDisease(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("%w: disease %q", storage.ErrNotFound, id)
		}
		return nil
	}, false)
	return result, err
}

// GetDiseases retrieves multiple records by id.
func (r *DiseaseRepository) GetDiseases(ctx context.Context, ids ...string) ([]*core.DiseaseRecord, error) {
	var result []*core.DiseaseRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			record, err := r.readDisease(tx, id)
			if err != nil {
				return err
			}
			if record != nil {
				result = append(result, record)
			}
		}
		return nil
	}, false)
	return result, err
}

// ListDiseases returns up to limit records whose key is greater than after.
func (r *DiseaseRepository) ListDiseases(ctx context.Context, after core.ID, limit int) ([]*core.DiseaseRecord, error) {
	var results []*core.DiseaseRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(diseasePrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		start := makeDiseaseKey(after)
		for iter.Seek(start); iter.Valid(); iter.Next() {
			if limit > 0 && len(results) >= limit {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()
			if after != 0 && bytes.Equal(item.Key(), start) {
				continue
			}

			var record *core.DiseaseRecord
			err := item.Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalDisease(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, record)
		}
		return nil
	}, false)
	return results, err
}

// DeleteDiseases removes records by id together with their enriched forms.
func (r *DiseaseRepository) DeleteDiseases(ctx context.Context, ids ...string) error {
	return r.backend.update(ctx, func(tx *badger.Txn) error {
		for _, id := range ids {
			record, err := r.readDisease(tx, id)
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("%w: disease %q", storage.ErrNotFound, id)
			}

			if err := tx.Delete(makeEnrichedKey(record.Key())); err != nil {
				return err
			}
			if err := tx.Delete(makeDiseaseKey(record.Key())); err != nil {
				return err
			}
		}
		return nil
	})
}

// CountDiseases returns the number of stored records.
func (r *DiseaseRepository) CountDiseases(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(diseasePrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// readDisease reads a record by id. Returns nil, nil if it doesn't exist
// or if its key is held by a different id.
func (r *DiseaseRepository) readDisease(tx *badger.Txn, id string) (*core.DiseaseRecord, error) {
	record, err := readValue(tx, makeDiseaseKey(core.IDFromContent(id)), storage.UnmarshalDisease)
	if err != nil || record == nil || record.ID != id {
		return nil, err
	}
	return record, nil
}
