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


// Package search provides multi-strategy disease search over an enriched corpus.
//
// The Searcher type builds its indices once from enriched diseases and then
// answers queries in five modes:
//   - TF-IDF search over the searchable text of each disease
//   - Semantic search using Jaccard similarity of canonical symptoms
//   - Cluster filtered TF-IDF search
//   - Weighted TF-IDF search over separate core and context fields
//   - Hybrid search combining the TF-IDF and semantic signals
//
// Thresholds from config.Config are applied to the final score of each mode.
// A built Searcher is safe for concurrent queries; Build may be called again
// to replace the indices atomically.
package search
