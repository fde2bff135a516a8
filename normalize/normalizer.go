package normalize

import (
	"cmp"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/poiesic/medsearch/core"
	"github.com/poiesic/medsearch/thesaurus"
)

// surface is one normalized match string pointing at a thesaurus entry.
type surface struct {
	text  string
	entry int
}

// Normalizer canonicalizes symptom text against an immutable thesaurus.
// It is safe for concurrent use.
type Normalizer struct {
	index     *thesaurus.Index
	entries   []core.ThesaurusEntry
	replacer  *strings.Replacer
	surfaces  []surface
	exact     map[string]int
	cache     *ristretto.Cache[string, core.Canonical]
	cacheSize int64
	contains  func(text, surface string) bool
	logger    *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) error {
		if logger == nil {
			logger = slog.Default()
		}
		n.logger = logger
		return nil
	}
}

// WithCacheSize enables a memo cache holding up to size canonicalization results.
// Zero disables the cache, which is the default.
func WithCacheSize(size int64) Option {
	return func(n *Normalizer) error {
		if size < 0 {
			return ErrInvalidCacheSize
		}
		n.cacheSize = size
		return nil
	}
}

// WithWordBoundaries restricts partial matches to surfaces delimited by
// token boundaries, so "coma" no longer matches "comateux". By default a
// surface matches anywhere inside the text.
func WithWordBoundaries() Option {
	return func(n *Normalizer) error {
		n.contains = containsOnBoundary
		return nil
	}
}

// New creates a Normalizer over index. Accent rules from the thesaurus are
// merged over the built-in French map.
func New(index *thesaurus.Index, opts ...Option) (*Normalizer, error) {
	if index == nil {
		return nil, ErrThesaurusRequired
	}

	n := &Normalizer{
		index:    index,
		contains: strings.Contains,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}

	accents, err := mergeAccents(defaultAccents, index.AccentMap())
	if err != nil {
		return nil, err
	}
	n.replacer = newAccentReplacer(accents)
	n.entries = index.Entries()
	n.buildSurfaces()

	if n.cacheSize > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config[string, core.Canonical]{
			NumCounters:        n.cacheSize * 10,
			MaxCost:            n.cacheSize,
			BufferItems:        64,
			IgnoreInternalCost: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create canonicalization cache: %w", err)
		}
		n.cache = cache
	}

	n.logger.Debug("normalizer ready",
		"entries", len(n.entries),
		"surfaces", len(n.surfaces),
		"thesaurusVersion", index.Version())
	return n, nil
}

// Close releases the memo cache, if any.
func (n *Normalizer) Close() {
	if n.cache != nil {
		n.cache.Close()
	}
}

// Thesaurus returns the index the normalizer was built from.
func (n *Normalizer) Thesaurus() *thesaurus.Index {
	return n.index
}

// Version returns the thesaurus version canonicalization depends on.
func (n *Normalizer) Version() string {
	return n.index.Version()
}

// Normalize lowercases text, strips accents, collapses whitespace and trims
// edge punctuation. It is deterministic and idempotent.
func (n *Normalizer) Normalize(text string) string {
	return normalizeWith(n.replacer, text)
}

// Canonicalize maps raw symptom text to a thesaurus entry. A surface matches
// when it occurs inside the normalized text, so plurals and inflections of a
// variation map to its entry. The longest matching surface wins and equal
// lengths fall back to the lowest entry id.
// Text matching nothing passes through as its own canonical term in the
// unclassified cluster.
func (n *Normalizer) Canonicalize(raw string) core.Canonical {
	if n.cache != nil {
		if c, ok := n.cache.Get(raw); ok {
			return c
		}
	}

	c := n.canonicalize(raw)

	if n.cache != nil {
		n.cache.Set(raw, c, 1)
	}
	return c
}

func (n *Normalizer) canonicalize(raw string) core.Canonical {
	text := n.Normalize(raw)
	if text == "" {
		return unmapped(raw, text)
	}

	if i, ok := n.exact[text]; ok {
		return n.fromEntry(i)
	}

	for _, s := range n.surfaces {
		if len(s.text) > len(text) {
			continue
		}
		if n.contains(text, s.text) {
			return n.fromEntry(s.entry)
		}
	}
	return unmapped(raw, text)
}

func (n *Normalizer) fromEntry(i int) core.Canonical {
	e := n.entries[i]
	return core.Canonical{
		Term:              n.Normalize(e.NormalizedTerm),
		CanonicalForm:     e.CanonicalForm,
		MedicalTerm:       e.MedicalTerm,
		PatientTerms:      e.PatientTerms,
		PrimaryCluster:    e.PrimaryCluster,
		SecondaryClusters: e.SecondaryClusters,
		EntryID:           e.ID,
		Mapped:            true,
	}
}

func unmapped(raw, text string) core.Canonical {
	return core.Canonical{
		Term:           text,
		CanonicalForm:  strings.TrimSpace(raw),
		PrimaryCluster: core.UnclassifiedCluster,
	}
}

// buildSurfaces collects every match surface of every entry, ordered by
// byte length descending then entry id ascending.
func (n *Normalizer) buildSurfaces() {
	n.surfaces = n.surfaces[:0]
	n.exact = make(map[string]int)

	for i, e := range n.entries {
		seen := make(map[string]struct{})
		candidates := make([]string, 0, len(e.Variations)+len(e.PatientTerms)+2)
		candidates = append(candidates, e.Variations...)
		candidates = append(candidates, e.PatientTerms...)
		candidates = append(candidates, e.NormalizedTerm, e.CanonicalForm)

		for _, c := range candidates {
			text := n.Normalize(c)
			if text == "" {
				continue
			}
			if _, dup := seen[text]; dup {
				continue
			}
			seen[text] = struct{}{}

			if owner, taken := n.exact[text]; taken {
				n.logger.Warn("surface shared by several thesaurus entries",
					"surface", text,
					"kept", n.entries[owner].ID,
					"ignored", e.ID)
				continue
			}
			n.exact[text] = i
			n.surfaces = append(n.surfaces, surface{text: text, entry: i})
		}
	}

	// Entries are already ordered by id, so a stable sort on length keeps
	// the lowest id first among equal lengths.
	slices.SortStableFunc(n.surfaces, func(a, b surface) int {
		return cmp.Compare(len(b.text), len(a.text))
	})
}

func mergeAccents(base, overrides map[string]string) (map[string]string, error) {
	merged := make(map[string]string, len(base)+len(overrides))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[strings.ToLower(k)] = strings.ToLower(v)
	}
	for _, k := range slices.Sorted(maps.Keys(merged)) {
		for other := range merged {
			if strings.Contains(merged[k], other) {
				return nil, fmt.Errorf("%w: accent replacement for %q contains %q", core.ErrDataIntegrity, k, other)
			}
		}
	}
	return merged, nil
}
