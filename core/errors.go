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

import "errors"

// Domain-wide error conditions
var (
	// ErrConfiguration indicates invalid engine thresholds or weights.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrInvalidState indicates an operation was attempted before its prerequisites ran,
	// e.g. a query issued before the index was built.
	ErrInvalidState = errors.New("invalid state")

	// ErrDataIntegrity indicates malformed external data such as a thesaurus entry
	// missing required fields.
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrInvalidDisease indicates a DiseaseRecord failed validation.
	ErrInvalidDisease = errors.New("invalid disease record")

	// ErrInvalidEntry indicates a ThesaurusEntry failed validation.
	ErrInvalidEntry = errors.New("invalid thesaurus entry")

	// ErrEmptyID indicates the ID field is empty.
	ErrEmptyID = errors.New("id cannot be empty")

	// ErrEmptyName indicates the disease Name field is empty.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrEmptyNormalizedTerm indicates the entry NormalizedTerm field is empty.
	ErrEmptyNormalizedTerm = errors.New("normalized term cannot be empty")

	// ErrEmptyCluster indicates the entry PrimaryCluster field is empty.
	ErrEmptyCluster = errors.New("semantic cluster cannot be empty")

	// ErrNoVariations indicates an entry has no variations to match against.
	ErrNoVariations = errors.New("variations cannot be empty")
)
