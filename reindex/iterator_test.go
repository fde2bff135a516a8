package reindex

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/medsearch/core"
)

func storeRecords(t *testing.T, env *testEnv, n int) {
	t.Helper()
	records := corpusRecords(n)
	ptrs := make([]*core.DiseaseRecord, n)
	for i := range records {
		ptrs[i] = &records[i]
	}
	require.NoError(t, env.diseases.PutDiseases(context.Background(), ptrs...))
}

func TestDiseaseIterator_Batches(t *testing.T) {
	env := setupTestEnv(t)
	storeRecords(t, env, 10)
	ctx := context.Background()

	tests := []struct {
		batchSize int
		want      []int
	}{
		{batchSize: 3, want: []int{3, 3, 3, 1}},
		{batchSize: 5, want: []int{5, 5}},
		{batchSize: 20, want: []int{10}},
		{batchSize: 0, want: []int{10}},
	}

	for _, tt := range tests {
		var sizes []int
		var keys []core.ID
		err := NewDiseaseIterator(env.diseases, tt.batchSize).ForEach(ctx, 0, func(batch []*core.DiseaseRecord) error {
			sizes = append(sizes, len(batch))
			for _, r := range batch {
				keys = append(keys, r.Key())
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, tt.want, sizes, "batch size %d", tt.batchSize)
		assert.IsIncreasing(t, keys)
	}
}

func TestDiseaseIterator_After(t *testing.T) {
	env := setupTestEnv(t)
	storeRecords(t, env, 6)
	ctx := context.Background()

	all, err := env.diseases.ListDiseases(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 6)

	count := 0
	err = NewDiseaseIterator(env.diseases, 2).ForEach(ctx, all[1].Key(), func(batch []*core.DiseaseRecord) error {
		count += len(batch)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestDiseaseIterator_Errors(t *testing.T) {
	env := setupTestEnv(t)
	storeRecords(t, env, 4)

	boom := errors.New("boom")
	calls := 0
	err := NewDiseaseIterator(env.diseases, 1).ForEach(context.Background(), 0, func([]*core.DiseaseRecord) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = NewDiseaseIterator(env.diseases, 1).ForEach(ctx, 0, func([]*core.DiseaseRecord) error {
		t.Fatal("fn called after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiseaseIterator_Empty(t *testing.T) {
	env := setupTestEnv(t)
	called := false
	err := NewDiseaseIterator(env.diseases, 5).ForEach(context.Background(), 0, func([]*core.DiseaseRecord) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}
