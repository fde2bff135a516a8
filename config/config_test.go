package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/medsearch/core"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, 0.15, cfg.SimilarityThreshold)
	assert.Equal(t, 0.10, cfg.MinJaccardScore)
	assert.False(t, cfg.UseWeightedFields)
	assert.False(t, cfg.WordBoundaryMatching)
	assert.Equal(t, 0.7, cfg.CoreWeight)
	assert.Equal(t, 0.3, cfg.ContextWeight)
	assert.Equal(t, 0.6, cfg.HybridTFIDFWeight)
	assert.Equal(t, 0.4, cfg.HybridSemanticWeight)
	assert.Equal(t, 1.3, cfg.DiscriminantBoostFactor)
	assert.Equal(t, 2.0, cfg.DiscriminantBoostCap)
	assert.Equal(t, 1, cfg.NGramMin)
	assert.Equal(t, 3, cfg.NGramMax)
	assert.Equal(t, 2, cfg.MinDocumentFrequency)
	assert.Equal(t, 1.0, cfg.MaxDocumentRatio)
	assert.Zero(t, cfg.MaxFeatures)
	assert.Len(t, cfg.DiscriminantKeywords, 6)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with weighted fields", func(t *testing.T) {
		cfg := NewConfig(WithWeightedFields(0.8, 0.2))
		assert.True(t, cfg.UseWeightedFields)
		assert.Equal(t, 0.8, cfg.CoreWeight)
		assert.Equal(t, 0.2, cfg.ContextWeight)
	})

	t.Run("with thresholds and weights", func(t *testing.T) {
		cfg := NewConfig(
			WithSimilarityThreshold(0.3),
			WithMinJaccardScore(0.2),
			WithHybridWeights(0.5, 0.5),
			WithDiscriminantBoost(1.5, 3),
			WithClusterBonusWeight(0.1),
		)
		assert.Equal(t, 0.3, cfg.SimilarityThreshold)
		assert.Equal(t, 0.2, cfg.MinJaccardScore)
		assert.Equal(t, 0.5, cfg.HybridTFIDFWeight)
		assert.Equal(t, 0.5, cfg.HybridSemanticWeight)
		assert.Equal(t, 1.5, cfg.DiscriminantBoostFactor)
		assert.Equal(t, 3.0, cfg.DiscriminantBoostCap)
		assert.Equal(t, 0.1, cfg.ClusterBonusWeight)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("with index parameters", func(t *testing.T) {
		cfg := NewConfig(
			WithNGramRange(1, 2),
			WithMinDocumentFrequency(1),
			WithMaxDocumentRatio(0.8),
			WithMaxFeatures(5000),
			WithPoolSize(4),
			WithCacheSize(0),
			WithDiscriminantKeywords("coma"),
			WithWordBoundaryMatching(true),
		)
		assert.Equal(t, 2, cfg.NGramMax)
		assert.Equal(t, 1, cfg.MinDocumentFrequency)
		assert.Equal(t, 0.8, cfg.MaxDocumentRatio)
		assert.Equal(t, 5000, cfg.MaxFeatures)
		assert.Equal(t, 4, cfg.PoolSize)
		assert.Zero(t, cfg.CacheSize)
		assert.Equal(t, []string{"coma"}, cfg.DiscriminantKeywords)
		assert.True(t, cfg.WordBoundaryMatching)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		opt  ConfigOption
	}{
		{name: "threshold above one", opt: WithSimilarityThreshold(1.5)},
		{name: "negative jaccard floor", opt: WithMinJaccardScore(-0.1)},
		{name: "NaN threshold", opt: WithSimilarityThreshold(math.NaN())},
		{name: "negative core weight", opt: WithWeightedFields(-1, 0.3)},
		{name: "both field weights zero", opt: WithWeightedFields(0, 0)},
		{name: "both hybrid weights zero", opt: WithHybridWeights(0, 0)},
		{name: "infinite hybrid weight", opt: WithHybridWeights(math.Inf(1), 0.4)},
		{name: "boost factor below one", opt: WithDiscriminantBoost(0.5, 2)},
		{name: "boost cap below one", opt: WithDiscriminantBoost(1.3, 0.5)},
		{name: "negative cluster bonus", opt: WithClusterBonusWeight(-0.2)},
		{name: "inverted n-gram range", opt: WithNGramRange(3, 1)},
		{name: "zero min df", opt: WithMinDocumentFrequency(0)},
		{name: "ratio above one", opt: WithMaxDocumentRatio(2)},
		{name: "negative max features", opt: WithMaxFeatures(-5)},
		{name: "negative pool", opt: WithPoolSize(-1)},
		{name: "negative cache", opt: WithCacheSize(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfig(tt.opt).Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrConfiguration)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := filepath.Join(dir, "partial.yaml")
		require.NoError(t, os.WriteFile(path, []byte("similarity_threshold: 0.25\nuse_weighted_fields: true\nmax_features: 5000\n"), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 0.25, cfg.SimilarityThreshold)
		assert.True(t, cfg.UseWeightedFields)
		assert.Equal(t, 5000, cfg.MaxFeatures)
		assert.Equal(t, 0.10, cfg.MinJaccardScore)
		assert.Equal(t, 0.6, cfg.HybridTFIDFWeight)
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("min_jaccard_score: 3\n"), 0o644))

		_, err := Load(path)
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("similarity_threshold: [\n"), 0o644))

		_, err := Load(path)
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "absent.yaml"))
		assert.Error(t, err)
	})
}
