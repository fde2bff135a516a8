// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"strings"
)

// ValidateDisease validates a DiseaseRecord according to domain rules.
//
// Validation rules:
//   - ID must not be blank
//   - Name must not be blank
//
// NOT validated:
//   - Symptoms (a disease without symptoms is still searchable by text)
//   - Severity (unknown levels are ignored during enrichment)
func ValidateDisease(record *DiseaseRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidDisease)
	}

	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDisease, ErrEmptyID)
	}

	if strings.TrimSpace(record.Name) == "" {
		return fmt.Errorf("%w: %s: %w", ErrInvalidDisease, record.ID, ErrEmptyName)
	}

	return nil
}

// ValidateEntry validates a ThesaurusEntry according to domain rules.
//
// Validation rules:
//   - ID must not be blank
//   - NormalizedTerm must not be blank
//   - PrimaryCluster must not be blank
//   - at least one variation must be present
func ValidateEntry(entry *ThesaurusEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}

	if strings.TrimSpace(entry.ID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyID)
	}

	if strings.TrimSpace(entry.NormalizedTerm) == "" {
		return fmt.Errorf("%w: %s: %w", ErrInvalidEntry, entry.ID, ErrEmptyNormalizedTerm)
	}

	if strings.TrimSpace(entry.PrimaryCluster) == "" {
		return fmt.Errorf("%w: %s: %w", ErrInvalidEntry, entry.ID, ErrEmptyCluster)
	}

	if len(entry.Variations) == 0 {
		return fmt.Errorf("%w: %s: %w", ErrInvalidEntry, entry.ID, ErrNoVariations)
	}

	return nil
}
