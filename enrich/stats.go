package enrich

import (
	"maps"
	"slices"

	"github.com/poiesic/medsearch/core"
)

// Summarize computes corpus-level enrichment statistics.
func Summarize(diseases []core.EnrichedDisease) core.EnrichmentStats {
	stats := core.EnrichmentStats{
		Diseases: len(diseases),
	}
	terms := make(map[string]struct{})
	clusters := make(map[string]struct{})

	for i := range diseases {
		d := &diseases[i]
		for _, m := range d.Mappings {
			stats.RawSymptoms++
			if m.Mapped {
				stats.Mapped++
				continue
			}
			stats.Unmapped++
			if stats.UnmappedTerms == nil {
				stats.UnmappedTerms = make(map[string]int)
			}
			stats.UnmappedTerms[m.Canonical]++
		}
		for _, t := range d.NormalizedSymptoms {
			terms[t] = struct{}{}
		}
		for c := range d.ClusterWeights {
			clusters[c] = struct{}{}
		}
	}

	stats.NormalizedSymptoms = len(terms)
	stats.UniqueClusters = slices.Sorted(maps.Keys(clusters))
	return stats
}
