package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/medsearch/core"
	"github.com/poiesic/medsearch/storage"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(dir, false, WithLogger(nil))
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := OpenBackend(path, false)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	repo := NewDiseaseRepository(backend)
	_, err = repo.GetDisease(context.Background(), "grippe")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestBackend_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	require.NoError(t, NewDiseaseRepository(backend).PutDiseases(ctx, &core.DiseaseRecord{ID: "grippe", Name: "Grippe"}))
	require.NoError(t, backend.Close())

	backend, err = OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()

	got, err := NewDiseaseRepository(backend).GetDisease(ctx, "grippe")
	require.NoError(t, err)
	assert.Equal(t, "Grippe", got.Name)
}

func TestWithTransaction(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	called := false
	err = backend.WithTransaction(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	err = backend.WithTransaction(context.Background(), func(ctx context.Context) error {
		return storage.ErrNotFound
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestWithTransaction_RepositoryWritesAreAtomic(t *testing.T) {
	diseases, enriched, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	record := core.DiseaseRecord{ID: "grippe", Name: "Grippe"}

	t.Run("rolled back together", func(t *testing.T) {
		err := backend.WithTransaction(ctx, func(ctx context.Context) error {
			if err := diseases.PutDiseases(ctx, &record); err != nil {
				return err
			}
			if err := enriched.SaveEnriched(ctx, &core.EnrichedDisease{DiseaseRecord: record}); err != nil {
				return err
			}
			return core.ErrInvalidState
		})
		require.ErrorIs(t, err, core.ErrInvalidState)

		count, err := diseases.CountDiseases(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
		_, err = enriched.GetEnriched(ctx, "grippe")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("committed together", func(t *testing.T) {
		err := diseases.WithTransaction(ctx, func(ctx context.Context) error {
			if err := diseases.PutDiseases(ctx, &record); err != nil {
				return err
			}
			// nested call joins the outer transaction
			return enriched.WithTransaction(ctx, func(ctx context.Context) error {
				return enriched.SaveEnriched(ctx, &core.EnrichedDisease{DiseaseRecord: record})
			})
		})
		require.NoError(t, err)

		got, err := diseases.GetDisease(ctx, "grippe")
		require.NoError(t, err)
		assert.Equal(t, "Grippe", got.Name)
		e, err := enriched.GetEnriched(ctx, "grippe")
		require.NoError(t, err)
		assert.Equal(t, "grippe", e.ID)
	})
}

func TestMakeRecordKey_Ordering(t *testing.T) {
	a := makeDiseaseKey(core.ID(1))
	b := makeDiseaseKey(core.ID(256))
	assert.Less(t, string(a), string(b))
	assert.NotEqual(t, makeDiseaseKey(core.ID(7)), makeEnrichedKey(core.ID(7)))
	assert.Len(t, a, len(diseasePrefix)+8)
}
