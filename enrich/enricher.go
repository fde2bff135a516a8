package enrich

import (
	"cmp"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/poiesic/medsearch/core"
	"github.com/poiesic/medsearch/normalize"
)

const (
	primaryClusterWeight   = 1.0
	secondaryClusterWeight = 0.5
)

// DefaultDiscriminantKeywords are symptoms specific enough to single out a
// small set of diseases.
var DefaultDiscriminantKeywords = []string{"coma", "ictere", "convulsion", "hemoptysie", "ascite", "choc"}

// Enricher derives normalized symptom metadata and indexable text for diseases.
// It is safe for concurrent use.
type Enricher struct {
	normalizer *normalize.Normalizer
	keywords   map[string]struct{}
	logger     *slog.Logger
}

// Option configures an Enricher.
type Option func(*Enricher) error

// WithDiscriminantKeywords replaces the discriminant keyword set.
// Keywords are normalized before use.
func WithDiscriminantKeywords(keywords ...string) Option {
	return func(e *Enricher) error {
		e.keywords = make(map[string]struct{}, len(keywords))
		for _, k := range keywords {
			if k = e.normalizer.Normalize(k); k != "" {
				e.keywords[k] = struct{}{}
			}
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enricher) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// New creates an Enricher backed by normalizer.
func New(normalizer *normalize.Normalizer, opts ...Option) (*Enricher, error) {
	if normalizer == nil {
		return nil, ErrNormalizerRequired
	}
	e := &Enricher{
		normalizer: normalizer,
		logger:     slog.Default(),
	}
	if err := WithDiscriminantKeywords(DefaultDiscriminantKeywords...)(e); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Normalizer returns the normalizer used for canonicalization.
func (e *Enricher) Normalizer() *normalize.Normalizer {
	return e.normalizer
}

// Keywords returns the normalized discriminant keywords in sorted order.
func (e *Enricher) Keywords() []string {
	return slices.Sorted(maps.Keys(e.keywords))
}

// Enrich derives an EnrichedDisease from a raw record. The raw fields are
// carried over unchanged. Every derived field depends only on the record
// contents and the thesaurus version, never on the order in which raw
// symptoms are listed.
func (e *Enricher) Enrich(record core.DiseaseRecord) core.EnrichedDisease {
	out := core.EnrichedDisease{
		DiseaseRecord:    record,
		ClusterWeights:   make(map[string]float64),
		ThesaurusVersion: e.normalizer.Version(),
	}

	out.Symptoms = slices.Clone(record.Symptoms)
	symptoms := e.orderSymptoms(record.Symptoms)

	seenTerms := make(map[string]struct{})
	seenMedical := make(map[string]struct{})
	seenPatient := make(map[string]struct{})

	for _, raw := range symptoms {
		c := e.normalizer.Canonicalize(raw)

		out.Mappings = append(out.Mappings, core.SymptomMapping{
			Original:      raw,
			Canonical:     c.Term,
			CanonicalForm: c.CanonicalForm,
			MedicalTerm:   c.MedicalTerm,
			Cluster:       c.PrimaryCluster,
			EntryID:       c.EntryID,
			Mapped:        c.Mapped,
		})

		out.NormalizedSymptoms = appendUnique(out.NormalizedSymptoms, seenTerms, c.Term)
		out.MedicalTerms = appendUnique(out.MedicalTerms, seenMedical, c.MedicalTerm)
		for _, p := range c.PatientTerms {
			out.PatientTerms = appendUnique(out.PatientTerms, seenPatient, p)
		}

		out.ClusterWeights[c.PrimaryCluster] += primaryClusterWeight
		for _, sc := range c.SecondaryClusters {
			out.ClusterWeights[sc] += secondaryClusterWeight
		}
	}

	out.DiscriminantTerms = e.discriminants(out.NormalizedSymptoms, record.Category)

	coreParts := make([]string, 0, len(out.DiscriminantTerms)+len(out.NormalizedSymptoms)+len(record.DiagnosticTests)+len(record.Complications))
	coreParts = append(coreParts, out.DiscriminantTerms...)
	coreParts = append(coreParts, out.NormalizedSymptoms...)
	coreParts = append(coreParts, record.DiagnosticTests...)
	coreParts = append(coreParts, record.Complications...)
	out.CoreText = joinNonEmpty(coreParts...)

	out.ContextText = joinNonEmpty(
		record.Description,
		SeverityPhrase(record.Severity),
		BodySystemPhrase(record.BodySystems),
		joinNonEmpty(record.Prevention...),
	)

	out.SearchableText = joinNonEmpty(out.CoreText, out.ContextText, record.Name, record.Category)

	if len(out.NormalizedSymptoms) == 0 {
		e.logger.Debug("disease has no usable symptoms", "disease", record.ID)
	}
	return out
}

// orderSymptoms drops blank symptoms and sorts the rest by normalized form,
// then by raw text, so enrichment is independent of input order.
func (e *Enricher) orderSymptoms(raw []string) []string {
	type keyed struct {
		key string
		raw string
	}
	ks := make([]keyed, 0, len(raw))
	for _, r := range raw {
		k := e.normalizer.Normalize(r)
		if k == "" {
			continue
		}
		ks = append(ks, keyed{key: k, raw: r})
	}
	slices.SortFunc(ks, func(a, b keyed) int {
		if c := cmp.Compare(a.key, b.key); c != 0 {
			return c
		}
		return cmp.Compare(a.raw, b.raw)
	})
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = k.raw
	}
	return out
}

func (e *Enricher) discriminants(terms []string, category string) []string {
	set := make(map[string]struct{})
	for _, t := range terms {
		if _, ok := e.keywords[t]; ok {
			set[t] = struct{}{}
		}
	}
	if c := e.normalizer.Normalize(category); c != "" {
		set[c] = struct{}{}
	}
	if len(set) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(set))
}

func appendUnique(dst []string, seen map[string]struct{}, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return dst
	}
	if _, ok := seen[s]; ok {
		return dst
	}
	seen[s] = struct{}{}
	return append(dst, s)
}
