package enrich

import (
	"strings"
)

var severityPhrases = map[string]string{
	"low":      "Cette affection est généralement bénigne.",
	"moderate": "Cette affection nécessite une surveillance médicale.",
	"high":     "Cette affection est sérieuse et nécessite une prise en charge médicale.",
	"critical": "Cette affection est grave et nécessite une intervention médicale urgente.",
}

var bodySystemNames = map[string]string{
	"blood":      "le sang",
	"liver":      "le foie",
	"lungs":      "les poumons",
	"heart":      "le cœur",
	"brain":      "le cerveau",
	"kidneys":    "les reins",
	"stomach":    "l'estomac",
	"intestines": "les intestins",
	"skin":       "la peau",
	"bones":      "les os",
	"joints":     "les articulations",
	"muscles":    "les muscles",
}

// maxBodySystems caps how many body systems are named in the context narrative.
const maxBodySystems = 3

// SeverityPhrase renders a severity level as a sentence. Unknown levels yield "".
func SeverityPhrase(severity string) string {
	return severityPhrases[strings.ToLower(strings.TrimSpace(severity))]
}

// BodySystemPhrase names the first three affected body systems.
// Systems without a French name are used verbatim.
func BodySystemPhrase(systems []string) string {
	names := make([]string, 0, maxBodySystems)
	for _, s := range systems {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if name, ok := bodySystemNames[strings.ToLower(s)]; ok {
			s = name
		}
		names = append(names, s)
		if len(names) == maxBodySystems {
			break
		}
	}
	if len(names) == 0 {
		return ""
	}
	return "Cette maladie affecte principalement " + strings.Join(names, ", ") + "."
}

// joinNonEmpty joins the non-blank parts with single spaces.
func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
