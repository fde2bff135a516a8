// Package corpus reads raw disease corpora and writes enriched exports.
package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/poiesic/medsearch/core"
)

// LoadDiseases reads a JSON array of disease records from path.
func LoadDiseases(path string) ([]core.DiseaseRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	return ParseDiseases(data)
}

// ParseDiseases decodes a JSON array of disease records. Every record must
// pass core.ValidateDisease and ids must be unique.
func ParseDiseases(data []byte) ([]core.DiseaseRecord, error) {
	var records []core.DiseaseRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrDataIntegrity, err)
	}
	if records == nil {
		return nil, fmt.Errorf("%w: corpus is not a disease array", core.ErrDataIntegrity)
	}

	seen := make(map[string]int, len(records))
	for i := range records {
		if err := core.ValidateDisease(&records[i]); err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", core.ErrDataIntegrity, i, err)
		}
		if j, dup := seen[records[i].ID]; dup {
			return nil, fmt.Errorf("%w: records %d and %d share id %q", core.ErrDataIntegrity, j, i, records[i].ID)
		}
		seen[records[i].ID] = i
	}
	return records, nil
}

// Version fingerprints a corpus. Record order does not matter; any change to
// a record's content does.
func Version(records []core.DiseaseRecord) (string, error) {
	sorted := slices.Clone(records)
	slices.SortFunc(sorted, func(a, b core.DiseaseRecord) int {
		return strings.Compare(a.ID, b.ID)
	})

	parts := make([]string, 0, len(sorted))
	for i := range sorted {
		data, err := json.Marshal(&sorted[i])
		if err != nil {
			return "", fmt.Errorf("failed to fingerprint %s: %w", sorted[i].ID, err)
		}
		parts = append(parts, string(data))
	}
	return core.Fingerprint(parts...), nil
}

// Export writes enriched diseases as an indented JSON array.
func Export(w io.Writer, diseases []core.EnrichedDisease) error {
	if diseases == nil {
		diseases = []core.EnrichedDisease{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(diseases); err != nil {
		return fmt.Errorf("failed to export diseases: %w", err)
	}
	return nil
}

// ExportFile writes enriched diseases to path, replacing any existing file.
func ExportFile(path string, diseases []core.EnrichedDisease) error {
	var buf bytes.Buffer
	if err := Export(&buf, diseases); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
