package thesaurus

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/poiesic/medsearch/core"
)

// Index is an immutable, versioned symptom vocabulary.
// It is safe for concurrent use.
type Index struct {
	entries  []core.ThesaurusEntry
	byID     map[string]int
	clusters core.ClusterRegistry
	accents  map[string]string
	version  string
}

// Option configures an Index under construction.
type Option func(*Index)

// WithClusters sets the cluster registry entries are validated against.
// An empty registry disables cluster validation.
func WithClusters(registry core.ClusterRegistry) Option {
	return func(ix *Index) {
		ix.clusters = maps.Clone(registry)
	}
}

// WithAccentMap sets the character replacement map used to strip accents.
func WithAccentMap(accents map[string]string) Option {
	return func(ix *Index) {
		ix.accents = maps.Clone(accents)
	}
}

// New builds an Index from entries. Entries are validated, their set-valued
// fields deduplicated, and the result ordered by identifier.
// Any malformed entry fails the whole build with core.ErrDataIntegrity.
func New(entries []core.ThesaurusEntry, opts ...Option) (*Index, error) {
	ix := &Index{
		byID: make(map[string]int, len(entries)),
	}
	for _, opt := range opts {
		opt(ix)
	}
	if ix.clusters == nil {
		ix.clusters = core.ClusterRegistry{}
	}
	if ix.accents == nil {
		ix.accents = map[string]string{}
	}

	if err := validateAccents(ix.accents); err != nil {
		return nil, err
	}

	ix.entries = make([]core.ThesaurusEntry, 0, len(entries))
	for i := range entries {
		entry := cleanEntry(entries[i])
		if err := core.ValidateEntry(&entry); err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrDataIntegrity, err)
		}
		if _, dup := ix.byID[entry.ID]; dup {
			return nil, fmt.Errorf("%w: %w: %s", core.ErrDataIntegrity, ErrDuplicateEntry, entry.ID)
		}
		if len(ix.clusters) > 0 {
			for _, c := range append([]string{entry.PrimaryCluster}, entry.SecondaryClusters...) {
				if !ix.clusters.Contains(c) {
					return nil, fmt.Errorf("%w: %w: %s references %q", core.ErrDataIntegrity, ErrUnknownCluster, entry.ID, c)
				}
			}
		}
		ix.byID[entry.ID] = -1
		ix.entries = append(ix.entries, entry)
	}

	slices.SortFunc(ix.entries, func(a, b core.ThesaurusEntry) int {
		return strings.Compare(a.ID, b.ID)
	})
	for i, e := range ix.entries {
		ix.byID[e.ID] = i
	}
	ix.version = ix.fingerprint()
	return ix, nil
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Entries returns every entry ordered by identifier.
// The returned slice is a copy; the entries' own slices must not be modified.
func (ix *Index) Entries() []core.ThesaurusEntry {
	return slices.Clone(ix.entries)
}

// Entry looks up an entry by identifier.
func (ix *Index) Entry(id string) (core.ThesaurusEntry, bool) {
	i, ok := ix.byID[id]
	if !ok {
		return core.ThesaurusEntry{}, false
	}
	return ix.entries[i], true
}

// Clusters returns a copy of the cluster registry.
func (ix *Index) Clusters() core.ClusterRegistry {
	return maps.Clone(ix.clusters)
}

// AccentMap returns a copy of the accent replacement map.
func (ix *Index) AccentMap() map[string]string {
	return maps.Clone(ix.accents)
}

// Version is a content fingerprint of the vocabulary and its accent rules.
func (ix *Index) Version() string {
	return ix.version
}

func (ix *Index) fingerprint() string {
	parts := make([]string, 0, len(ix.entries)*9+len(ix.accents)*2)
	for _, e := range ix.entries {
		parts = append(parts,
			e.ID,
			e.CanonicalForm,
			e.NormalizedTerm,
			e.MedicalTerm,
			strings.Join(e.PatientTerms, "\x1f"),
			strings.Join(e.Variations, "\x1f"),
			e.PrimaryCluster,
			strings.Join(e.SecondaryClusters, "\x1f"),
			strings.Join(e.ICD10Codes, "\x1f"),
		)
	}
	for _, k := range slices.Sorted(maps.Keys(ix.accents)) {
		parts = append(parts, k, ix.accents[k])
	}
	return core.Fingerprint(parts...)
}

// cleanEntry trims the entry and normalizes its set-valued fields.
// Patient terms keep their order; the other sets are sorted.
func cleanEntry(e core.ThesaurusEntry) core.ThesaurusEntry {
	e.ID = strings.TrimSpace(e.ID)
	e.NormalizedTerm = strings.TrimSpace(e.NormalizedTerm)
	e.PrimaryCluster = strings.TrimSpace(e.PrimaryCluster)
	e.CanonicalForm = strings.TrimSpace(e.CanonicalForm)
	if e.CanonicalForm == "" {
		e.CanonicalForm = e.NormalizedTerm
	}
	e.MedicalTerm = strings.TrimSpace(e.MedicalTerm)
	e.PatientTerms = dedupeOrdered(e.PatientTerms)
	e.Variations = sortedSet(e.Variations)
	e.SecondaryClusters = sortedSet(e.SecondaryClusters)
	e.ICD10Codes = sortedSet(e.ICD10Codes)
	return e
}

func dedupeOrdered(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func sortedSet(in []string) []string {
	out := dedupeOrdered(in)
	slices.Sort(out)
	return out
}

// validateAccents rejects maps whose replacements contain a mapped key,
// which would make accent stripping order dependent.
func validateAccents(accents map[string]string) error {
	for k, v := range accents {
		if k == "" {
			return fmt.Errorf("%w: %w: empty key", core.ErrDataIntegrity, ErrInvalidAccentMap)
		}
		for other := range accents {
			if strings.Contains(v, other) {
				return fmt.Errorf("%w: %w: replacement for %q contains %q", core.ErrDataIntegrity, ErrInvalidAccentMap, k, other)
			}
		}
	}
	return nil
}
