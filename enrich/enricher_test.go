package enrich

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/medsearch/core"
	"github.com/poiesic/medsearch/normalize"
	"github.com/poiesic/medsearch/thesaurus"
)

func newSampleEnricher(t *testing.T, opts ...Option) *Enricher {
	t.Helper()
	ix, err := thesaurus.NewSampleIndex()
	require.NoError(t, err)
	n, err := normalize.New(ix)
	require.NoError(t, err)
	e, err := New(n, opts...)
	require.NoError(t, err)
	return e
}

func hepatitis() core.DiseaseRecord {
	return core.DiseaseRecord{
		ID:              "hep-a",
		Name:            "Hépatite A",
		Description:     "Infection virale du foie.",
		Symptoms:        []string{"Jaunisse", "fièvre", "Fatigue intense", "forte fièvre", "urines foncées"},
		Category:        "Infectieuse",
		DiagnosticTests: []string{"sérologie VHA"},
		Complications:   []string{"hépatite fulminante"},
		Severity:        "moderate",
		BodySystems:     []string{"liver", "blood", "skin", "stomach"},
		Prevention:      []string{"vaccination", "hygiène des mains"},
	}
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNormalizerRequired)

	e := newSampleEnricher(t)
	assert.Equal(t, []string{"ascite", "choc", "coma", "convulsion", "hemoptysie", "ictere"}, e.Keywords())

	e = newSampleEnricher(t, WithDiscriminantKeywords("Ictère", "Toux", ""))
	assert.Equal(t, []string{"ictere", "toux"}, e.Keywords())
}

func TestEnrich(t *testing.T) {
	e := newSampleEnricher(t)
	out := e.Enrich(hepatitis())

	t.Run("normalized symptoms deduplicated", func(t *testing.T) {
		assert.Equal(t, []string{"fatigue", "fievre", "ictere", "urines foncees"}, out.NormalizedSymptoms)
	})

	t.Run("cluster weights per raw symptom", func(t *testing.T) {
		assert.Equal(t, map[string]float64{
			"general":                1.0 + 0.5 + 0.5,
			"infectious":             2.0,
			"hepatic":                1.0,
			core.UnclassifiedCluster: 1.0,
		}, out.ClusterWeights)
	})

	t.Run("discriminants include category", func(t *testing.T) {
		assert.Equal(t, []string{"ictere", "infectieuse"}, out.DiscriminantTerms)
	})

	t.Run("medical and patient terms", func(t *testing.T) {
		assert.Equal(t, []string{"Asthénie", "Hyperthermie", "Ictère"}, out.MedicalTerms)
		assert.Equal(t, []string{"fatigue", "fièvre", "température", "jaunisse"}, out.PatientTerms)
	})

	t.Run("mappings", func(t *testing.T) {
		require.Len(t, out.Mappings, 5)
		last := out.Mappings[4]
		assert.Equal(t, "urines foncées", last.Original)
		assert.False(t, last.Mapped)
		assert.Equal(t, core.UnclassifiedCluster, last.Cluster)
	})

	t.Run("text fields", func(t *testing.T) {
		assert.Equal(t, "ictere infectieuse fatigue fievre ictere urines foncees sérologie VHA hépatite fulminante", out.CoreText)
		assert.Equal(t,
			"Infection virale du foie. Cette affection nécessite une surveillance médicale. "+
				"Cette maladie affecte principalement le foie, le sang, la peau. vaccination hygiène des mains",
			out.ContextText)
		assert.Contains(t, out.SearchableText, out.CoreText)
		assert.Contains(t, out.SearchableText, out.ContextText)
		assert.Contains(t, out.SearchableText, "Hépatite A")
	})

	t.Run("raw symptoms kept as given", func(t *testing.T) {
		assert.Equal(t, hepatitis().Symptoms, out.Symptoms)
	})

	t.Run("thesaurus version recorded", func(t *testing.T) {
		assert.Equal(t, e.Normalizer().Version(), out.ThesaurusVersion)
	})
}

func TestEnrich_Deterministic(t *testing.T) {
	e := newSampleEnricher(t)

	a := hepatitis()
	b := hepatitis()
	b.Symptoms = []string{"urines foncées", "forte fièvre", "Fatigue intense", "fièvre", "Jaunisse"}

	ea, eb := e.Enrich(a), e.Enrich(b)
	assert.Equal(t, a.Symptoms, ea.Symptoms)
	assert.Equal(t, b.Symptoms, eb.Symptoms)

	// only the raw listing differs
	eb.Symptoms = ea.Symptoms
	ja, err := json.Marshal(ea)
	require.NoError(t, err)
	jb, err := json.Marshal(eb)
	require.NoError(t, err)
	assert.Equal(t, string(ja), string(jb))

	again, err := json.Marshal(e.Enrich(a))
	require.NoError(t, err)
	assert.Equal(t, string(ja), string(again))
}

func TestEnrich_EdgeCases(t *testing.T) {
	e := newSampleEnricher(t)

	t.Run("no symptoms", func(t *testing.T) {
		out := e.Enrich(core.DiseaseRecord{ID: "x", Name: "Inconnue"})
		assert.Empty(t, out.NormalizedSymptoms)
		assert.Empty(t, out.ClusterWeights)
		assert.Equal(t, "Inconnue", out.SearchableText)
	})

	t.Run("blank symptoms are skipped", func(t *testing.T) {
		out := e.Enrich(core.DiseaseRecord{ID: "x", Name: "X", Symptoms: []string{"  ", "toux", "!"}})
		assert.Equal(t, []string{"toux"}, out.NormalizedSymptoms)
		assert.Len(t, out.Mappings, 1)
	})

	t.Run("unknown severity ignored", func(t *testing.T) {
		out := e.Enrich(core.DiseaseRecord{ID: "x", Name: "X", Severity: "extreme"})
		assert.Empty(t, out.ContextText)
	})

	t.Run("duplicate raw symptoms count twice", func(t *testing.T) {
		out := e.Enrich(core.DiseaseRecord{ID: "x", Name: "X", Symptoms: []string{"toux", "Toux"}})
		assert.Equal(t, []string{"toux"}, out.NormalizedSymptoms)
		assert.Equal(t, 2.0, out.ClusterWeights["respiratory"])
	})
}

func TestContextPhrases(t *testing.T) {
	assert.Equal(t, "Cette affection est grave et nécessite une intervention médicale urgente.", SeverityPhrase(" Critical "))
	assert.Empty(t, SeverityPhrase(""))
	assert.Equal(t, "Cette maladie affecte principalement le cœur, thyroid.", BodySystemPhrase([]string{"heart", "", "thyroid"}))
	assert.Empty(t, BodySystemPhrase(nil))
}

func TestSummarize(t *testing.T) {
	e := newSampleEnricher(t)
	diseases := []core.EnrichedDisease{
		e.Enrich(hepatitis()),
		e.Enrich(core.DiseaseRecord{ID: "flu", Name: "Grippe", Symptoms: []string{"fièvre", "toux", "urines foncées"}}),
	}

	stats := Summarize(diseases)
	assert.Equal(t, 2, stats.Diseases)
	assert.Equal(t, 8, stats.RawSymptoms)
	assert.Equal(t, 6, stats.Mapped)
	assert.Equal(t, 2, stats.Unmapped)
	assert.Equal(t, map[string]int{"urines foncees": 2}, stats.UnmappedTerms)
	assert.Equal(t, 5, stats.NormalizedSymptoms)
	assert.Equal(t, []string{"general", "hepatic", "infectious", "respiratory", core.UnclassifiedCluster}, stats.UniqueClusters)
	assert.InDelta(t, 1-5.0/8.0, stats.Reduction(), 1e-9)
}

func TestSummarize_UnmappedRoundTrip(t *testing.T) {
	e := newSampleEnricher(t)
	before := Summarize([]core.EnrichedDisease{e.Enrich(core.DiseaseRecord{ID: "a", Name: "A", Symptoms: []string{"toux"}})})
	after := Summarize([]core.EnrichedDisease{e.Enrich(core.DiseaseRecord{ID: "a", Name: "A", Symptoms: []string{"toux", "prurit anal"}})})

	assert.Equal(t, before.Unmapped+1, after.Unmapped)
	assert.Equal(t, 1, after.UnmappedTerms["prurit anal"])
}
