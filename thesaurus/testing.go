package thesaurus

import "github.com/poiesic/medsearch/core"

// SampleClusters returns the cluster registry used by SampleEntries.
func SampleClusters() core.ClusterRegistry {
	return core.ClusterRegistry{
		"infectious":     {ID: "infectious", Label: "Infectieux"},
		"general":        {ID: "general", Label: "Général"},
		"respiratory":    {ID: "respiratory", Label: "Respiratoire"},
		"neurological":   {ID: "neurological", Label: "Neurologique"},
		"pain":           {ID: "pain", Label: "Douleur"},
		"cardiovascular": {ID: "cardiovascular", Label: "Cardiovasculaire"},
		"hepatic":        {ID: "hepatic", Label: "Hépatique"},
		"digestive":      {ID: "digestive", Label: "Digestif"},
	}
}

// SampleEntries returns a small French symptom vocabulary for tests and demos.
func SampleEntries() []core.ThesaurusEntry {
	return []core.ThesaurusEntry{
		{
			ID:                "SYM_001",
			CanonicalForm:     "Fièvre",
			NormalizedTerm:    "fievre",
			MedicalTerm:       "Hyperthermie",
			PatientTerms:      []string{"fièvre", "température"},
			Variations:        []string{"fièvre", "fievre", "forte fièvre", "hyperthermie", "température élevée"},
			PrimaryCluster:    "infectious",
			SecondaryClusters: []string{"general"},
			ICD10Codes:        []string{"R50"},
		},
		{
			ID:             "SYM_002",
			CanonicalForm:  "Toux",
			NormalizedTerm: "toux",
			MedicalTerm:    "Toux",
			PatientTerms:   []string{"toux"},
			Variations:     []string{"toux", "toux sèche", "toux grasse"},
			PrimaryCluster: "respiratory",
			ICD10Codes:     []string{"R05"},
		},
		{
			ID:                "SYM_003",
			CanonicalForm:     "Céphalée",
			NormalizedTerm:    "cephalee",
			MedicalTerm:       "Céphalée",
			PatientTerms:      []string{"mal de tête"},
			Variations:        []string{"mal de tête", "maux de tête", "céphalée", "céphalées"},
			PrimaryCluster:    "neurological",
			SecondaryClusters: []string{"pain"},
			ICD10Codes:        []string{"R51"},
		},
		{
			ID:             "SYM_004",
			CanonicalForm:  "Douleur",
			NormalizedTerm: "douleur",
			MedicalTerm:    "Algie",
			Variations:     []string{"douleur", "douleurs"},
			PrimaryCluster: "pain",
		},
		{
			ID:                "SYM_005",
			CanonicalForm:     "Douleur thoracique",
			NormalizedTerm:    "douleur thoracique",
			MedicalTerm:       "Thoracalgie",
			PatientTerms:      []string{"douleur à la poitrine"},
			Variations:        []string{"douleur thoracique", "douleur poitrine"},
			PrimaryCluster:    "cardiovascular",
			SecondaryClusters: []string{"pain", "respiratory"},
			ICD10Codes:        []string{"R07"},
		},
		{
			ID:             "SYM_006",
			CanonicalForm:  "Ictère",
			NormalizedTerm: "ictere",
			MedicalTerm:    "Ictère",
			PatientTerms:   []string{"jaunisse"},
			Variations:     []string{"ictère", "jaunisse", "peau jaune"},
			PrimaryCluster: "hepatic",
		},
		{
			ID:             "SYM_007",
			CanonicalForm:  "Fatigue",
			NormalizedTerm: "fatigue",
			MedicalTerm:    "Asthénie",
			PatientTerms:   []string{"fatigue"},
			Variations:     []string{"fatigue", "asthénie", "épuisement"},
			PrimaryCluster: "general",
		},
		{
			ID:             "SYM_008",
			CanonicalForm:  "Coma",
			NormalizedTerm: "coma",
			MedicalTerm:    "Coma",
			Variations:     []string{"coma", "perte de conscience prolongée"},
			PrimaryCluster: "neurological",
		},
		{
			ID:             "SYM_009",
			CanonicalForm:  "Dyspnée",
			NormalizedTerm: "dyspnee",
			MedicalTerm:    "Dyspnée",
			PatientTerms:   []string{"essoufflement"},
			Variations:     []string{"dyspnée", "essoufflement", "difficulté à respirer"},
			PrimaryCluster: "respiratory",
		},
		{
			ID:             "SYM_010",
			CanonicalForm:  "Nausées",
			NormalizedTerm: "nausee",
			MedicalTerm:    "Nausée",
			PatientTerms:   []string{"envie de vomir"},
			Variations:     []string{"nausée", "nausées", "envie de vomir"},
			PrimaryCluster: "digestive",
		},
	}
}

// SampleAccents returns a partial French accent map. Characters it omits are
// still stripped by the normalizer's built-in map.
func SampleAccents() map[string]string {
	return map[string]string{
		"é": "e",
		"è": "e",
		"ê": "e",
		"à": "a",
		"ç": "c",
	}
}

// NewSampleIndex builds an Index from the sample vocabulary.
func NewSampleIndex() (*Index, error) {
	return New(SampleEntries(), WithClusters(SampleClusters()), WithAccentMap(SampleAccents()))
}
