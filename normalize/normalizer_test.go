package normalize

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/medsearch/core"
	"github.com/poiesic/medsearch/thesaurus"
)

func newSampleNormalizer(t *testing.T, opts ...Option) *Normalizer {
	t.Helper()
	ix, err := thesaurus.NewSampleIndex()
	require.NoError(t, err)
	n, err := New(ix, opts...)
	require.NoError(t, err)
	t.Cleanup(n.Close)
	return n
}

func TestNew(t *testing.T) {
	t.Run("requires thesaurus", func(t *testing.T) {
		_, err := New(nil)
		assert.ErrorIs(t, err, ErrThesaurusRequired)
	})

	t.Run("rejects negative cache size", func(t *testing.T) {
		ix, err := thesaurus.NewSampleIndex()
		require.NoError(t, err)
		_, err = New(ix, WithCacheSize(-1))
		assert.ErrorIs(t, err, ErrInvalidCacheSize)
	})

	t.Run("rejects accent rules that clash with built-in map", func(t *testing.T) {
		ix, err := thesaurus.New(nil, thesaurus.WithAccentMap(map[string]string{"é": "è"}))
		require.NoError(t, err)
		_, err = New(ix)
		assert.ErrorIs(t, err, core.ErrDataIntegrity)
	})
}

func TestNormalize(t *testing.T) {
	n := newSampleNormalizer(t)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercase and accents", in: "Fièvre Élevée", want: "fievre elevee"},
		{name: "collapse whitespace", in: "  mal   de\ttête  ", want: "mal de tete"},
		{name: "trim edge punctuation", in: "...toux sèche!!", want: "toux seche"},
		{name: "inner punctuation kept", in: "nausées/vomissements", want: "nausees/vomissements"},
		{name: "decomposed accents", in: "fièvre", want: "fievre"},
		{name: "ligature", in: "Œdème", want: "oedeme"},
		{name: "mark outside the map", in: "ǹ", want: "n"},
		{name: "empty", in: "", want: ""},
		{name: "only punctuation", in: " ?! ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := newSampleNormalizer(t)

	inputs := []string{
		"Fièvre Élevée",
		" -- Douleur THORACIQUE intense -- ",
		"İstanbul",
		"Œdème des membres inférieurs.",
		"céphalées, nausées; vertiges",
		"",
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), "input %q", in)
	}
}

func TestCanonicalize(t *testing.T) {
	n := newSampleNormalizer(t)

	tests := []struct {
		name    string
		raw     string
		entry   string
		term    string
		cluster string
	}{
		{name: "exact variation", raw: "Fièvre", entry: "SYM_001", term: "fievre", cluster: "infectious"},
		{name: "variation inside text", raw: "forte fièvre nocturne", entry: "SYM_001", term: "fievre", cluster: "infectious"},
		{name: "patient term", raw: "Mal de tête", entry: "SYM_003", term: "cephalee", cluster: "neurological"},
		{name: "longest match wins", raw: "douleur thoracique intense", entry: "SYM_005", term: "douleur thoracique", cluster: "cardiovascular"},
		{name: "shorter match", raw: "douleur abdominale", entry: "SYM_004", term: "douleur", cluster: "pain"},
		{name: "canonical form", raw: "NAUSÉES", entry: "SYM_010", term: "nausee", cluster: "digestive"},
		{name: "normalized term", raw: "dyspnee", entry: "SYM_009", term: "dyspnee", cluster: "respiratory"},
		{name: "plural", raw: "Fièvres", entry: "SYM_001", term: "fievre", cluster: "infectious"},
		{name: "plural inside text", raw: "fièvres persistantes", entry: "SYM_001", term: "fievre", cluster: "infectious"},
		{name: "variation inside a word", raw: "comateux", entry: "SYM_008", term: "coma", cluster: "neurological"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := n.Canonicalize(tt.raw)
			assert.True(t, c.Mapped)
			assert.Equal(t, tt.entry, c.EntryID)
			assert.Equal(t, tt.term, c.Term)
			assert.Equal(t, tt.cluster, c.PrimaryCluster)
		})
	}

	t.Run("unmapped passes through", func(t *testing.T) {
		c := n.Canonicalize("Éruption cutanée")
		assert.False(t, c.Mapped)
		assert.Equal(t, "eruption cutanee", c.Term)
		assert.Equal(t, "Éruption cutanée", c.CanonicalForm)
		assert.Empty(t, c.MedicalTerm)
		assert.Equal(t, core.UnclassifiedCluster, c.PrimaryCluster)
		assert.Empty(t, c.EntryID)
	})

	t.Run("secondary clusters are carried", func(t *testing.T) {
		c := n.Canonicalize("douleur poitrine")
		assert.Equal(t, []string{"cardiovascular", "pain", "respiratory"}, c.Clusters())
	})
}

func TestCanonicalize_WordBoundaries(t *testing.T) {
	n := newSampleNormalizer(t, WithWordBoundaries())

	assert.False(t, n.Canonicalize("comateux").Mapped)
	assert.False(t, n.Canonicalize("Fièvres").Mapped)

	c := n.Canonicalize("forte fièvre nocturne")
	assert.True(t, c.Mapped)
	assert.Equal(t, "SYM_001", c.EntryID)
	assert.Equal(t, "SYM_005", n.Canonicalize("douleur thoracique intense").EntryID)
}

func TestCanonicalize_EveryVariationIsStable(t *testing.T) {
	n := newSampleNormalizer(t)

	for _, e := range thesaurus.SampleEntries() {
		for _, v := range e.Variations {
			c := n.Canonicalize(v)
			assert.Equal(t, e.ID, c.EntryID, "variation %q", v)
			assert.Equal(t, c, n.Canonicalize(v), "variation %q", v)
		}
	}
}

func TestCanonicalize_TieBreaksOnLowestID(t *testing.T) {
	ix, err := thesaurus.New([]core.ThesaurusEntry{
		{ID: "B", NormalizedTerm: "abc", PrimaryCluster: "x", Variations: []string{"abc"}},
		{ID: "A", NormalizedTerm: "xyz", PrimaryCluster: "y", Variations: []string{"xyz"}},
	})
	require.NoError(t, err)
	n, err := New(ix)
	require.NoError(t, err)

	assert.Equal(t, "A", n.Canonicalize("abc xyz").EntryID)
	assert.Equal(t, "A", n.Canonicalize("xyz abc").EntryID)
}

func TestCanonicalize_SharedSurface(t *testing.T) {
	ix, err := thesaurus.New([]core.ThesaurusEntry{
		{ID: "S2", NormalizedTerm: "migraine", PrimaryCluster: "neuro", Variations: []string{"mal de crane"}},
		{ID: "S1", NormalizedTerm: "cephalee", PrimaryCluster: "neuro", Variations: []string{"mal de crâne"}},
	})
	require.NoError(t, err)
	n, err := New(ix)
	require.NoError(t, err)

	assert.Equal(t, "S1", n.Canonicalize("Mal de crâne").EntryID)
}

func TestCanonicalize_Cache(t *testing.T) {
	cached := newSampleNormalizer(t, WithCacheSize(128))
	plain := newSampleNormalizer(t)

	for _, raw := range []string{"toux grasse", "fièvre", "inconnu", "toux grasse", "fièvre"} {
		assert.Equal(t, plain.Canonicalize(raw), cached.Canonicalize(raw), "raw %q", raw)
	}
}

func TestCanonicalize_CacheRetainsUpToSize(t *testing.T) {
	const size = 4096
	n := newSampleNormalizer(t, WithCacheSize(size))

	keys := make([]string, 1000)
	for i := range keys {
		keys[i] = fmt.Sprintf("symptome inconnu %d", i)
		n.Canonicalize(keys[i])
	}
	n.cache.Wait()

	retained := 0
	for _, k := range keys {
		if _, ok := n.cache.Get(k); ok {
			retained++
		}
	}
	assert.Equal(t, len(keys), retained)
}
