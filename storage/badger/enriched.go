package badger

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/medsearch/core"
	"github.com/poiesic/medsearch/storage"
)

// EnrichedRepository implements storage.EnrichedRepository for BadgerDB.
type EnrichedRepository struct {
	backend *Backend
}

var _ storage.EnrichedRepository = (*EnrichedRepository)(nil)

// NewEnrichedRepository creates a new EnrichedRepository.
func NewEnrichedRepository(backend *Backend) *EnrichedRepository {
	return &EnrichedRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend owns the database handle.
func (r *EnrichedRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *EnrichedRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// SaveEnriched stores enriched diseases, replacing existing ones.
func (r *EnrichedRepository) SaveEnriched(ctx context.Context, diseases ...*core.EnrichedDisease) error {
	return r.backend.update(ctx, func(tx *badger.Txn) error {
		for _, d := range diseases {
			if err := ctx.Err(); err != nil {
				return err
			}
			value, err := storage.MarshalEnriched(d)
			if err != nil {
				return err
			}
			if err := tx.Set(makeEnrichedKey(d.Key()), value); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetEnriched retrieves a single enriched disease by id.
func (r *EnrichedRepository) GetEnriched(ctx context.Context, id string) (*core.EnrichedDisease, error) {
	var result *core.EnrichedDisease
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readValue(tx, makeEnrichedKey(core.IDFromContent(id)), storage.UnmarshalEnriched)
		if err != nil {
			return err
		}
		if result == nil || result.ID != id {
			result = nil
			return fmt.Errorf("%w: enriched disease %q", storage.ErrNotFound, id)
		}
		return nil
	}, false)
	return result, err
}

// ListEnriched returns every enriched disease in ascending id order.
func (r *EnrichedRepository) ListEnriched(ctx context.Context) ([]*core.EnrichedDisease, error) {
	var results []*core.EnrichedDisease
	err := r.scan(ctx, func(d *core.EnrichedDisease) {
		results = append(results, d)
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(results, func(a, b *core.EnrichedDisease) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return results, nil
}

// StaleEnriched returns the ids of enriched diseases produced with a
// thesaurus version other than version.
func (r *EnrichedRepository) StaleEnriched(ctx context.Context, version string) ([]string, error) {
	var ids []string
	err := r.scan(ctx, func(d *core.EnrichedDisease) {
		if d.ThesaurusVersion != version {
			ids = append(ids, d.ID)
		}
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(ids)
	return ids, nil
}

func (r *EnrichedRepository) scan(ctx context.Context, fn func(*core.EnrichedDisease)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(enrichedPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var d *core.EnrichedDisease
			err := iter.Item().Value(func(val []byte) error {
				var err error
				d, err = storage.UnmarshalEnriched(val)
				return err
			})
			if err != nil {
				return err
			}
			fn(d)
		}
		return nil
	}, false)
}
