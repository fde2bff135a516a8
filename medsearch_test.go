package medsearch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/medsearch/config"
	"github.com/poiesic/medsearch/core"
	"github.com/poiesic/medsearch/search"
	"github.com/poiesic/medsearch/thesaurus"
)

const thesaurusYAML = `
symptom_synonyms:
  SYM_001:
    canonical_form: Fièvre
    normalized_term: fievre
    medical_term: Hyperthermie
    variations: [fièvre, forte fièvre]
    semantic_cluster: infectious
  SYM_002:
    canonical_form: Toux
    normalized_term: toux
    medical_term: Toux
    variations: [toux, toux sèche]
    semantic_cluster: respiratory
symptom_clusters:
  infectious: {name: Infectieux}
  respiratory: {name: Respiratoire}
`

func sampleIndex(t *testing.T) *thesaurus.Index {
	t.Helper()
	ix, err := thesaurus.NewSampleIndex()
	require.NoError(t, err)
	return ix
}

func openMemory(t *testing.T, opts ...Option) *KnowledgeBase {
	t.Helper()
	base := []Option{InMemory(), WithThesaurus(sampleIndex(t)), WithConfig(config.NewConfig(config.WithMinDocumentFrequency(1)))}
	kb, err := Open("", append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { kb.Close() })
	return kb
}

func TestOpen(t *testing.T) {
	t.Run("create new knowledge base", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "test_db")
		kb, err := Open(dir, WithThesaurus(sampleIndex(t)))
		require.NoError(t, err)
		defer kb.Close()

		assert.NotNil(t, kb.DiseaseRepository())
		assert.NotNil(t, kb.EnrichedRepository())
		assert.NotNil(t, kb.SnapshotRepository())
		assert.NotNil(t, kb.CheckpointRepository())
		assert.NotNil(t, kb.Enricher())
		assert.Equal(t, config.DefaultConfig(), kb.Config())
		assert.Equal(t, sampleIndex(t).Version(), kb.Normalizer().Version())
	})

	t.Run("thesaurus from config path", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "thesaurus.yaml")
		require.NoError(t, os.WriteFile(path, []byte(thesaurusYAML), 0o644))

		cfg := config.DefaultConfig()
		cfg.ThesaurusPath = path
		kb, err := Open("", InMemory(), WithConfig(cfg))
		require.NoError(t, err)
		defer kb.Close()

		assert.Equal(t, 2, kb.Normalizer().Thesaurus().Len())
		assert.Equal(t, "fievre", kb.Normalizer().Canonicalize("forte fièvre").Term)
	})

	t.Run("matching mode from config", func(t *testing.T) {
		kb := openMemory(t)
		assert.True(t, kb.Normalizer().Canonicalize("Fièvres").Mapped)

		strict := openMemory(t, WithConfig(config.NewConfig(config.WithWordBoundaryMatching(true))))
		assert.False(t, strict.Normalizer().Canonicalize("Fièvres").Mapped)
	})

	t.Run("no thesaurus", func(t *testing.T) {
		_, err := Open("", InMemory())
		assert.ErrorIs(t, err, ErrThesaurusRequired)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := Open("", InMemory(), WithThesaurus(sampleIndex(t)),
			WithConfig(config.NewConfig(config.WithSimilarityThreshold(2))))
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0o644))

		kb, err := Open(tmpFile, WithThesaurus(sampleIndex(t)))
		assert.Error(t, err)
		assert.Nil(t, kb)
	})
}

func TestKnowledgeBase_EndToEnd(t *testing.T) {
	kb := openMemory(t)
	ctx := context.Background()

	_, err := kb.NewSearcher(ctx)
	assert.ErrorIs(t, err, core.ErrInvalidState, "empty knowledge base")

	pipeline, err := kb.NewIngestionPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	snapshot, err := pipeline.Ingest(ctx, []core.DiseaseRecord{
		{ID: "grippe", Name: "Grippe", Symptoms: []string{"fièvre", "toux", "fatigue"}},
		{ID: "bronchite", Name: "Bronchite", Symptoms: []string{"toux", "essoufflement"}},
		{ID: "hepatite", Name: "Hépatite", Symptoms: []string{"jaunisse", "fatigue", "nausées"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, snapshot.Stats.Diseases)

	searcher, err := kb.NewSearcher(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, searcher.Len())

	results, err := searcher.HybridSearch(ctx, search.HybridQuery{
		Text:     "fièvre toux",
		Symptoms: []string{"fièvre", "toux"},
	}, 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "grippe", results[0].DiseaseID)

	reindexer, err := kb.NewReindexer(pipeline)
	require.NoError(t, err)
	result, err := reindexer.Run(ctx)
	require.NoError(t, err)
	assert.True(t, result.UpToDate)
}

func TestKnowledgeBase_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	kb, err := Open(dir, WithThesaurus(sampleIndex(t)))
	require.NoError(t, err)
	pipeline, err := kb.NewIngestionPipeline()
	require.NoError(t, err)
	_, err = pipeline.Ingest(ctx, []core.DiseaseRecord{{ID: "grippe", Name: "Grippe", Symptoms: []string{"fièvre"}}})
	require.NoError(t, err)
	pipeline.Release()
	require.NoError(t, kb.Close())

	kb, err = Open(dir, WithThesaurus(sampleIndex(t)))
	require.NoError(t, err)
	defer kb.Close()

	got, err := kb.EnrichedRepository().GetEnriched(ctx, "grippe")
	require.NoError(t, err)
	assert.Equal(t, []string{"fievre"}, got.NormalizedSymptoms)

	snap, err := kb.SnapshotRepository().LoadSnapshot(ctx, "corpus")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 1, snap.Stats.Diseases)
}
