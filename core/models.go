package core

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier for domain entities.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Fingerprint returns a hex BLAKE2b-256 digest over the given parts.
// Parts are length-prefixed so that ("ab","c") and ("a","bc") differ.
func Fingerprint(parts ...string) string {
	h, _ := blake2b.New(32, nil)
	var lenBuf [8]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(p)))
		h.Write(lenBuf[:])
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// UnclassifiedCluster is the cluster assigned to symptoms with no thesaurus entry.
const UnclassifiedCluster = "unclassified"

// ThesaurusEntry is one canonical symptom concept and every surface form that maps to it.
type ThesaurusEntry struct {
	ID                string
	CanonicalForm     string
	NormalizedTerm    string
	MedicalTerm       string
	PatientTerms      []string
	Variations        []string
	PrimaryCluster    string
	SecondaryClusters []string
	ICD10Codes        []string
}

// Cluster is a semantic grouping of symptoms.
type Cluster struct {
	ID          string
	Label       string
	Description string
}

// ClusterRegistry is the set of valid cluster identifiers. It is used for validation only.
type ClusterRegistry map[string]Cluster

// Contains reports whether id is a registered cluster. The unclassified cluster is always valid.
func (r ClusterRegistry) Contains(id string) bool {
	if id == UnclassifiedCluster {
		return true
	}
	_, ok := r[id]
	return ok
}

// Canonical is the result of canonicalizing one raw symptom string.
type Canonical struct {
	// Term is the normalized canonical term used for matching.
	Term              string
	CanonicalForm     string
	MedicalTerm       string
	PatientTerms      []string
	PrimaryCluster    string
	SecondaryClusters []string
	EntryID           string
	Mapped            bool
}

// Clusters returns the primary cluster followed by the secondary clusters.
func (c Canonical) Clusters() []string {
	out := make([]string, 0, 1+len(c.SecondaryClusters))
	out = append(out, c.PrimaryCluster)
	return append(out, c.SecondaryClusters...)
}

// DiseaseRecord is a raw disease entry as it appears in the source corpus.
type DiseaseRecord struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	Symptoms        []string `json:"symptoms"`
	Category        string   `json:"category,omitempty"`
	ICD10Code       string   `json:"icd10,omitempty"`
	DiagnosticTests []string `json:"diagnosticTests,omitempty"`
	Complications   []string `json:"complications,omitempty"`
	Severity        string   `json:"severity,omitempty"`
	BodySystems     []string `json:"bodyParts,omitempty"`
	Prevention      []string `json:"prevention,omitempty"`
}

// Key returns the storage key of the record, derived from its id.
func (r *DiseaseRecord) Key() ID {
	return IDFromContent(r.ID)
}

// SymptomMapping records how a single raw symptom was canonicalized.
type SymptomMapping struct {
	Original      string `json:"original"`
	Canonical     string `json:"canonical"`
	CanonicalForm string `json:"canonical_form"`
	MedicalTerm   string `json:"medical_term,omitempty"`
	Cluster       string `json:"cluster"`
	EntryID       string `json:"entry_id,omitempty"`
	Mapped        bool   `json:"mapped"`
}

// EnrichedDisease is a disease record extended with normalized symptom metadata
// and the text fields consumed by the vector indices.
type EnrichedDisease struct {
	DiseaseRecord

	NormalizedSymptoms []string           `json:"symptoms_normalized"`
	MedicalTerms       []string           `json:"symptoms_medical_terms"`
	PatientTerms       []string           `json:"symptoms_patient_terms"`
	ClusterWeights     map[string]float64 `json:"cluster_weights"`
	DiscriminantTerms  []string           `json:"discriminant_terms"`
	Mappings           []SymptomMapping   `json:"symptom_metadata"`

	CoreText       string `json:"core_text"`
	ContextText    string `json:"context_text"`
	SearchableText string `json:"searchable_text"`

	ThesaurusVersion string `json:"thesaurus_version"`
}

// HasCluster reports whether any of the given clusters carries weight for the disease.
func (d *EnrichedDisease) HasCluster(clusters ...string) bool {
	for _, c := range clusters {
		if _, ok := d.ClusterWeights[c]; ok {
			return true
		}
	}
	return false
}

// ScoreBreakdown splits a final score into its contributing signals.
type ScoreBreakdown struct {
	TFIDF        float64 `json:"tfidf"`
	Semantic     float64 `json:"semantic"`
	ClusterBonus float64 `json:"cluster_bonus"`
}

// SearchResult is a ranked disease hit.
type SearchResult struct {
	DiseaseID    string         `json:"disease_id"`
	FinalScore   float64        `json:"final_score"`
	Breakdown    ScoreBreakdown `json:"score_breakdown"`
	MatchedTerms []string       `json:"matched_terms"`
}

// EnrichmentStats summarizes one enrichment pass over a corpus.
type EnrichmentStats struct {
	Diseases           int            `json:"diseases"`
	RawSymptoms        int            `json:"raw_symptoms"`
	Mapped             int            `json:"mapped"`
	Unmapped           int            `json:"unmapped"`
	NormalizedSymptoms int            `json:"normalized_symptoms"`
	UniqueClusters     []string       `json:"unique_clusters"`
	UnmappedTerms      map[string]int `json:"unmapped_terms,omitempty"`
}

// Reduction returns the fraction of raw symptoms removed by deduplication.
func (s EnrichmentStats) Reduction() float64 {
	if s.RawSymptoms == 0 {
		return 0
	}
	return 1 - float64(s.NormalizedSymptoms)/float64(s.RawSymptoms)
}

// Snapshot describes the corpus state that enriched records were produced from.
type Snapshot struct {
	Name             string          `json:"name"`
	ThesaurusVersion string          `json:"thesaurus_version"`
	CorpusVersion    string          `json:"corpus_version"`
	Stats            EnrichmentStats `json:"stats"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Checkpoint records how far a batch processor has progressed through the
// disease key space, so an interrupted run can resume.
type Checkpoint struct {
	ProcessorType string    `json:"processor_type"`
	LastID        ID        `json:"last_id"`
	UpdatedAt     time.Time `json:"updated_at"`
}
