package thesaurus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/medsearch/core"
)

// Format identifies the encoding of a thesaurus document.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFromPath picks a Format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

type fileEntry struct {
	CanonicalForm     string   `json:"canonical_form" yaml:"canonical_form"`
	NormalizedTerm    string   `json:"normalized_term" yaml:"normalized_term"`
	MedicalTerm       string   `json:"medical_term" yaml:"medical_term"`
	PatientTerms      []string `json:"patient_terms" yaml:"patient_terms"`
	Variations        []string `json:"variations" yaml:"variations"`
	SemanticCluster   string   `json:"semantic_cluster" yaml:"semantic_cluster"`
	SecondaryClusters []string `json:"secondary_clusters" yaml:"secondary_clusters"`
	ICD10Related      []string `json:"icd10_related" yaml:"icd10_related"`
}

type fileCluster struct {
	Name        string `json:"name" yaml:"name"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
}

type fileRules struct {
	AccentsRemoval map[string]string `json:"accents_removal" yaml:"accents_removal"`
}

type document struct {
	Synonyms map[string]fileEntry   `json:"symptom_synonyms" yaml:"symptom_synonyms"`
	Rules    fileRules              `json:"normalization_rules" yaml:"normalization_rules"`
	Clusters map[string]fileCluster `json:"symptom_clusters" yaml:"symptom_clusters"`
}

// Load reads a thesaurus file and builds an Index. The cluster registry comes
// from the file's symptom_clusters section unless a WithClusters option is given.
func Load(path string, opts ...Option) (*Index, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read thesaurus: %w", err)
	}
	return Parse(data, format, opts...)
}

// Parse decodes a thesaurus document and builds an Index.
func Parse(data []byte, format Format, opts ...Option) (*Index, error) {
	var doc document
	if err := decode(data, format, &doc); err != nil {
		return nil, err
	}
	if doc.Synonyms == nil {
		return nil, fmt.Errorf("%w: missing symptom_synonyms", core.ErrDataIntegrity)
	}

	entries := make([]core.ThesaurusEntry, 0, len(doc.Synonyms))
	for id, fe := range doc.Synonyms {
		entries = append(entries, core.ThesaurusEntry{
			ID:                id,
			CanonicalForm:     fe.CanonicalForm,
			NormalizedTerm:    fe.NormalizedTerm,
			MedicalTerm:       fe.MedicalTerm,
			PatientTerms:      fe.PatientTerms,
			Variations:        fe.Variations,
			PrimaryCluster:    fe.SemanticCluster,
			SecondaryClusters: fe.SecondaryClusters,
			ICD10Codes:        fe.ICD10Related,
		})
	}

	base := []Option{
		WithClusters(toRegistry(doc.Clusters)),
		WithAccentMap(doc.Rules.AccentsRemoval),
	}
	return New(entries, append(base, opts...)...)
}

// LoadClusters reads a standalone cluster registry. The file is either a
// map of cluster id to {name, description} or a document with a
// symptom_clusters section.
func LoadClusters(path string) (core.ClusterRegistry, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cluster registry: %w", err)
	}

	var wrapped struct {
		Clusters map[string]fileCluster `json:"symptom_clusters" yaml:"symptom_clusters"`
	}
	if err := decode(data, format, &wrapped); err == nil && len(wrapped.Clusters) > 0 {
		return toRegistry(wrapped.Clusters), nil
	}

	var flat map[string]fileCluster
	if err := decode(data, format, &flat); err != nil {
		return nil, err
	}
	return toRegistry(flat), nil
}

func decode(data []byte, format Format, v any) error {
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, v)
	case FormatYAML:
		err = yaml.Unmarshal(data, v)
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrDataIntegrity, err)
	}
	return nil
}

func toRegistry(in map[string]fileCluster) core.ClusterRegistry {
	reg := make(core.ClusterRegistry, len(in))
	for id, c := range in {
		label := c.Label
		if label == "" {
			label = c.Name
		}
		reg[id] = core.Cluster{ID: id, Label: label, Description: c.Description}
	}
	return reg
}
