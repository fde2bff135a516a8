package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/medsearch/core"
	"github.com/poiesic/medsearch/storage"
)

func enrichedFixture(id, version string) *core.EnrichedDisease {
	return &core.EnrichedDisease{
		DiseaseRecord:      core.DiseaseRecord{ID: id, Name: id},
		NormalizedSymptoms: []string{"fievre"},
		ClusterWeights:     map[string]float64{"infectious": 1},
		ThesaurusVersion:   version,
	}
}

func TestEnrichedRepository(t *testing.T) {
	_, repo := newRepos(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveEnriched(ctx,
		enrichedFixture("paludisme", "v2"),
		enrichedFixture("grippe", "v1"),
		enrichedFixture("bronchite", "v2"),
		enrichedFixture("angine", "v1"),
	))

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetEnriched(ctx, "grippe")
		require.NoError(t, err)
		assert.Equal(t, enrichedFixture("grippe", "v1"), got)

		_, err = repo.GetEnriched(ctx, "absent")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("list in id order", func(t *testing.T) {
		all, err := repo.ListEnriched(ctx)
		require.NoError(t, err)
		var ids []string
		for _, d := range all {
			ids = append(ids, d.ID)
		}
		assert.Equal(t, []string{"angine", "bronchite", "grippe", "paludisme"}, ids)
	})

	t.Run("stale", func(t *testing.T) {
		stale, err := repo.StaleEnriched(ctx, "v2")
		require.NoError(t, err)
		assert.Equal(t, []string{"angine", "grippe"}, stale)

		stale, err = repo.StaleEnriched(ctx, "v3")
		require.NoError(t, err)
		assert.Len(t, stale, 4)
	})
}

func TestSnapshotRepository(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()
	repo := NewSnapshotRepository(backend)
	ctx := context.Background()

	got, err := repo.LoadSnapshot(ctx, "default")
	require.NoError(t, err)
	assert.Nil(t, got)

	snap := &core.Snapshot{
		Name:             "default",
		ThesaurusVersion: "tv",
		CorpusVersion:    "cv",
		Stats:            core.EnrichmentStats{Diseases: 3, RawSymptoms: 9, Mapped: 7, Unmapped: 2},
	}
	require.NoError(t, repo.SaveSnapshot(ctx, snap))
	assert.False(t, snap.UpdatedAt.IsZero())

	got, err = repo.LoadSnapshot(ctx, "default")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tv", got.ThesaurusVersion)
	assert.Equal(t, "cv", got.CorpusVersion)
	assert.Equal(t, 7, got.Stats.Mapped)
	assert.True(t, snap.UpdatedAt.Equal(got.UpdatedAt))
}

func TestCheckpointRepository(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()
	repo := NewCheckpointRepository(backend)
	ctx := context.Background()

	got, err := repo.LoadCheckpoint(ctx, "reindex")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.SaveCheckpoint(ctx, &core.Checkpoint{ProcessorType: "reindex", LastID: 42}))
	got, err = repo.LoadCheckpoint(ctx, "reindex")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, core.ID(42), got.LastID)
	assert.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, repo.DeleteCheckpoint(ctx, "reindex"))
	got, err = repo.LoadCheckpoint(ctx, "reindex")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, repo.DeleteCheckpoint(ctx, "absent"))
}
