package semantic

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/poiesic/medsearch/core"
	"github.com/poiesic/medsearch/normalize"
)

const (
	DefaultBoostFactor = 1.3
	DefaultBoostCap    = 2.0
)

// Multiplier returns factor^matches capped at limit. No matches yields 1.
func Multiplier(matches int, factor, limit float64) float64 {
	if matches <= 0 {
		return 1
	}
	return math.Min(math.Pow(factor, float64(matches)), limit)
}

// Boost scales base by the capped compounding discriminant multiplier.
func Boost(base float64, matches int, factor, limit float64) float64 {
	return base * Multiplier(matches, factor, limit)
}

// Jaccard returns |a ∩ b| / |a ∪ b| over two sets given as sorted,
// duplicate-free slices, along with the shared elements.
func Jaccard(a, b []string) (float64, []string) {
	if len(a) == 0 && len(b) == 0 {
		return 0, nil
	}
	var shared []string
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			shared = append(shared, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	union := len(a) + len(b) - len(shared)
	return float64(len(shared)) / float64(union), shared
}

// Match is the outcome of scoring one disease against a symptom query.
type Match struct {
	Score        float64
	Jaccard      float64
	ClusterBonus float64
	Multiplier   float64
	MatchedTerms []string
}

// Query is a canonicalized symptom query, reusable across diseases.
type Query struct {
	Terms    []string
	Clusters []string
}

// IsEmpty reports whether the query has no symptom.
func (q Query) IsEmpty() bool {
	return len(q.Terms) == 0
}

// Matcher scores symptom queries against enriched diseases with Jaccard
// similarity, an optional cluster bonus and discriminant boosting.
// It is safe for concurrent use.
type Matcher struct {
	normalizer         *normalize.Normalizer
	boostFactor        float64
	boostCap           float64
	clusterBonusWeight float64
}

// Option configures a Matcher.
type Option func(*Matcher) error

// WithBoost sets the per-match discriminant factor and the multiplier cap.
func WithBoost(factor, limit float64) Option {
	return func(m *Matcher) error {
		if !(factor >= 1) || math.IsInf(factor, 0) {
			return fmt.Errorf("%w: discriminant boost factor %v", core.ErrConfiguration, factor)
		}
		if !(limit >= 1) || math.IsInf(limit, 0) {
			return fmt.Errorf("%w: discriminant boost cap %v", core.ErrConfiguration, limit)
		}
		m.boostFactor = factor
		m.boostCap = limit
		return nil
	}
}

// WithClusterBonus sets the weight of the cluster overlap bonus. Zero disables it.
func WithClusterBonus(weight float64) Option {
	return func(m *Matcher) error {
		if !(weight >= 0) || math.IsInf(weight, 0) {
			return fmt.Errorf("%w: cluster bonus weight %v", core.ErrConfiguration, weight)
		}
		m.clusterBonusWeight = weight
		return nil
	}
}

// New creates a Matcher using normalizer for query canonicalization.
func New(normalizer *normalize.Normalizer, opts ...Option) (*Matcher, error) {
	if normalizer == nil {
		return nil, ErrNormalizerRequired
	}
	m := &Matcher{
		normalizer:  normalizer,
		boostFactor: DefaultBoostFactor,
		boostCap:    DefaultBoostCap,
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Prepare canonicalizes query symptoms into a sorted term set and the
// clusters they imply.
func (m *Matcher) Prepare(symptoms []string) Query {
	var q Query
	for _, s := range symptoms {
		c := m.normalizer.Canonicalize(s)
		if c.Term == "" {
			continue
		}
		q.Terms = append(q.Terms, c.Term)
		if c.Mapped {
			q.Clusters = append(q.Clusters, c.Clusters()...)
		}
	}
	slices.Sort(q.Terms)
	q.Terms = slices.Compact(q.Terms)
	slices.Sort(q.Clusters)
	q.Clusters = slices.Compact(q.Clusters)
	return q
}

// Score rates how well q matches d. The result lies in [0, cap] and is zero
// whenever the query and the disease share no symptom.
func (m *Matcher) Score(q Query, d *core.EnrichedDisease) Match {
	diseaseTerms := slices.Clone(d.NormalizedSymptoms)
	slices.Sort(diseaseTerms)
	diseaseTerms = slices.Compact(diseaseTerms)

	j, shared := Jaccard(q.Terms, diseaseTerms)
	match := Match{Jaccard: j, Multiplier: 1, MatchedTerms: shared}
	if j == 0 {
		return match
	}

	base := j
	if m.clusterBonusWeight > 0 {
		match.ClusterBonus = m.clusterBonus(q.Clusters, d.ClusterWeights)
		base = math.Min(base+match.ClusterBonus, 1)
	}

	discriminants := 0
	for _, t := range shared {
		if slices.Contains(d.DiscriminantTerms, t) {
			discriminants++
		}
	}
	match.Multiplier = Multiplier(discriminants, m.boostFactor, m.boostCap)
	match.Score = base * match.Multiplier
	return match
}

// ScoreSymptoms prepares symptoms and scores them against d.
func (m *Matcher) ScoreSymptoms(symptoms []string, d *core.EnrichedDisease) Match {
	return m.Score(m.Prepare(symptoms), d)
}

// clusterBonus is the share of the disease's classified cluster weight that
// falls in clusters implied by the query, scaled by the bonus weight.
func (m *Matcher) clusterBonus(clusters []string, weights map[string]float64) float64 {
	var total, overlap float64
	for _, c := range slices.Sorted(maps.Keys(weights)) {
		w := weights[c]
		if c == core.UnclassifiedCluster {
			continue
		}
		total += w
		if _, found := slices.BinarySearch(clusters, c); found {
			overlap += w
		}
	}
	if total == 0 {
		return 0
	}
	return m.clusterBonusWeight * overlap / total
}
