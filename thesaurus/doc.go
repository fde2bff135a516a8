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


// Package thesaurus holds the controlled symptom vocabulary.
//
// An Index is built once from a thesaurus file (JSON or YAML) or from
// entries constructed in code, and is immutable afterwards. Several
// indices may coexist; each carries a Version fingerprint derived from its
// content so that consumers can detect when enriched data was produced by
// a different vocabulary.
//
// Thesaurus file layout:
//
//	symptom_synonyms:
//	  SYM_001:
//	    canonical_form: Fièvre
//	    normalized_term: fievre
//	    medical_term: Hyperthermie
//	    patient_terms: [fièvre, température]
//	    variations: [fièvre, fievre, température élevée]
//	    semantic_cluster: infectious
//	    secondary_clusters: [general]
//	    icd10_related: [R50]
//	normalization_rules:
//	  accents_removal: {"é": "e", "è": "e"}
//	symptom_clusters:
//	  infectious: {name: Infectieux}
package thesaurus
