// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/medsearch/core"
)

// Config holds the search engine thresholds, weights and index parameters.
type Config struct {
	// SimilarityThreshold drops TF-IDF and hybrid results scoring below it.
	// Default: 0.15
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// MinJaccardScore drops semantic results scoring below it.
	// Default: 0.10
	MinJaccardScore float64 `yaml:"min_jaccard_score"`

	// UseWeightedFields makes hybrid search use the core/context field indices
	// instead of the single searchable-text index.
	UseWeightedFields bool `yaml:"use_weighted_fields"`

	// CoreWeight and ContextWeight combine the field indices.
	// Defaults: 0.7 and 0.3
	CoreWeight    float64 `yaml:"core_weight"`
	ContextWeight float64 `yaml:"context_weight"`

	// HybridTFIDFWeight and HybridSemanticWeight combine the two signals of a hybrid query.
	// Defaults: 0.6 and 0.4
	HybridTFIDFWeight    float64 `yaml:"hybrid_tfidf_weight"`
	HybridSemanticWeight float64 `yaml:"hybrid_semantic_weight"`

	// DiscriminantBoostFactor multiplies the semantic score once per distinct
	// discriminant match, up to DiscriminantBoostCap.
	// Defaults: 1.3 and 2.0
	DiscriminantBoostFactor float64 `yaml:"discriminant_boost_factor"`
	DiscriminantBoostCap    float64 `yaml:"discriminant_boost_cap"`

	// DiscriminantKeywords are the symptoms that count as discriminant.
	DiscriminantKeywords []string `yaml:"discriminant_keywords"`

	// ClusterBonusWeight scales the cluster overlap bonus. Zero disables it.
	ClusterBonusWeight float64 `yaml:"cluster_bonus_weight"`

	// NGramMin and NGramMax bound the n-gram lengths indexed. Defaults: 1 and 3
	NGramMin int `yaml:"ngram_min"`
	NGramMax int `yaml:"ngram_max"`

	// MinDocumentFrequency drops terms found in fewer documents. Default: 2
	MinDocumentFrequency int `yaml:"min_document_frequency"`

	// MaxDocumentRatio drops terms found in a larger share of documents.
	// Default: 1.0 (off)
	MaxDocumentRatio float64 `yaml:"max_document_ratio"`

	// MaxFeatures caps the vocabulary size. Zero means unlimited.
	MaxFeatures int `yaml:"max_features"`

	// PoolSize is the worker count for enrichment and index construction.
	// Zero picks runtime.NumCPU() / 2.
	PoolSize int `yaml:"pool_size"`

	// CacheSize bounds the canonicalization memo cache. Zero disables it.
	// Default: 4096
	CacheSize int64 `yaml:"cache_size"`

	// WordBoundaryMatching restricts partial symptom matches to whole words.
	// Off by default: a variation matches anywhere inside the symptom text.
	WordBoundaryMatching bool `yaml:"word_boundary_matching"`

	// ThesaurusPath and ClustersPath locate the vocabulary files.
	ThesaurusPath string `yaml:"thesaurus_path"`
	ClustersPath  string `yaml:"clusters_path"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithSimilarityThreshold sets the TF-IDF and hybrid score floor.
func WithSimilarityThreshold(v float64) ConfigOption {
	return func(c *Config) {
		c.SimilarityThreshold = v
	}
}

// WithMinJaccardScore sets the semantic score floor.
func WithMinJaccardScore(v float64) ConfigOption {
	return func(c *Config) {
		c.MinJaccardScore = v
	}
}

// WithWeightedFields enables core/context field weighting with the given weights.
func WithWeightedFields(coreWeight, contextWeight float64) ConfigOption {
	return func(c *Config) {
		c.UseWeightedFields = true
		c.CoreWeight = coreWeight
		c.ContextWeight = contextWeight
	}
}

// WithHybridWeights sets the TF-IDF and semantic weights of hybrid search.
func WithHybridWeights(tfidfWeight, semanticWeight float64) ConfigOption {
	return func(c *Config) {
		c.HybridTFIDFWeight = tfidfWeight
		c.HybridSemanticWeight = semanticWeight
	}
}

// WithDiscriminantBoost sets the per-match boost factor and its cap.
func WithDiscriminantBoost(factor, limit float64) ConfigOption {
	return func(c *Config) {
		c.DiscriminantBoostFactor = factor
		c.DiscriminantBoostCap = limit
	}
}

// WithDiscriminantKeywords replaces the discriminant keyword list.
func WithDiscriminantKeywords(keywords ...string) ConfigOption {
	return func(c *Config) {
		c.DiscriminantKeywords = slices.Clone(keywords)
	}
}

// WithClusterBonusWeight sets the cluster overlap bonus weight.
func WithClusterBonusWeight(w float64) ConfigOption {
	return func(c *Config) {
		c.ClusterBonusWeight = w
	}
}

// WithNGramRange sets the indexed n-gram lengths.
func WithNGramRange(lo, hi int) ConfigOption {
	return func(c *Config) {
		c.NGramMin = lo
		c.NGramMax = hi
	}
}

// WithMinDocumentFrequency sets the minimum document frequency of indexed terms.
func WithMinDocumentFrequency(n int) ConfigOption {
	return func(c *Config) {
		c.MinDocumentFrequency = n
	}
}

// WithMaxDocumentRatio sets the maximum document ratio of indexed terms.
func WithMaxDocumentRatio(r float64) ConfigOption {
	return func(c *Config) {
		c.MaxDocumentRatio = r
	}
}

// WithMaxFeatures caps the vocabulary size.
func WithMaxFeatures(n int) ConfigOption {
	return func(c *Config) {
		c.MaxFeatures = n
	}
}

// WithPoolSize sets the worker count.
func WithPoolSize(n int) ConfigOption {
	return func(c *Config) {
		c.PoolSize = n
	}
}

// WithCacheSize sets the canonicalization cache capacity.
func WithCacheSize(n int64) ConfigOption {
	return func(c *Config) {
		c.CacheSize = n
	}
}

// WithWordBoundaryMatching restricts partial symptom matches to whole words.
func WithWordBoundaryMatching(enabled bool) ConfigOption {
	return func(c *Config) {
		c.WordBoundaryMatching = enabled
	}
}

// DefaultConfig returns a Config with the engine defaults.
func DefaultConfig() *Config {
	return &Config{
		SimilarityThreshold:     0.15,
		MinJaccardScore:         0.10,
		CoreWeight:              0.7,
		ContextWeight:           0.3,
		HybridTFIDFWeight:       0.6,
		HybridSemanticWeight:    0.4,
		DiscriminantBoostFactor: 1.3,
		DiscriminantBoostCap:    2.0,
		DiscriminantKeywords:    []string{"coma", "ictere", "convulsion", "hemoptysie", "ascite", "choc"},
		NGramMin:                1,
		NGramMax:                3,
		MinDocumentFrequency:    2,
		MaxDocumentRatio:        1.0,
		CacheSize:               4096,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithSimilarityThreshold(0.2),
//	    WithHybridWeights(0.5, 0.5),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Load reads a YAML configuration file. Keys absent from the file keep
// their default values. The result is validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that thresholds, weights and index parameters are usable.
func (c *Config) Validate() error {
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"similarity_threshold", c.SimilarityThreshold},
		{"min_jaccard_score", c.MinJaccardScore},
	} {
		if !(p.v >= 0 && p.v <= 1) {
			return invalid("%s must be between 0 and 1, got %v", p.name, p.v)
		}
	}

	for _, p := range []struct {
		name string
		v    float64
	}{
		{"core_weight", c.CoreWeight},
		{"context_weight", c.ContextWeight},
		{"hybrid_tfidf_weight", c.HybridTFIDFWeight},
		{"hybrid_semantic_weight", c.HybridSemanticWeight},
		{"cluster_bonus_weight", c.ClusterBonusWeight},
	} {
		if !(p.v >= 0) || math.IsInf(p.v, 0) {
			return invalid("%s must be a finite non-negative number, got %v", p.name, p.v)
		}
	}
	if c.CoreWeight+c.ContextWeight == 0 {
		return invalid("core_weight and context_weight cannot both be zero")
	}
	if c.HybridTFIDFWeight+c.HybridSemanticWeight == 0 {
		return invalid("hybrid weights cannot both be zero")
	}

	if !(c.DiscriminantBoostFactor >= 1) || math.IsInf(c.DiscriminantBoostFactor, 0) {
		return invalid("discriminant_boost_factor must be at least 1, got %v", c.DiscriminantBoostFactor)
	}
	if !(c.DiscriminantBoostCap >= 1) || math.IsInf(c.DiscriminantBoostCap, 0) {
		return invalid("discriminant_boost_cap must be at least 1, got %v", c.DiscriminantBoostCap)
	}

	if c.NGramMin < 1 || c.NGramMax < c.NGramMin {
		return invalid("ngram range [%d, %d] is invalid", c.NGramMin, c.NGramMax)
	}
	if c.MinDocumentFrequency < 1 {
		return invalid("min_document_frequency must be at least 1, got %d", c.MinDocumentFrequency)
	}
	if !(c.MaxDocumentRatio > 0 && c.MaxDocumentRatio <= 1) {
		return invalid("max_document_ratio must be in (0, 1], got %v", c.MaxDocumentRatio)
	}
	if c.MaxFeatures < 0 {
		return invalid("max_features cannot be negative, got %d", c.MaxFeatures)
	}
	if c.PoolSize < 0 {
		return invalid("pool_size cannot be negative, got %d", c.PoolSize)
	}
	if c.CacheSize < 0 {
		return invalid("cache_size cannot be negative, got %d", c.CacheSize)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{core.ErrConfiguration}, args...)...)
}
