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


// Package storage provides the storage abstraction layer for medsearch.
//
// This package defines repository interfaces that decouple storage implementation
// from business logic. Raw disease records, their enriched forms, corpus
// snapshots and batch checkpoints each have their own repository.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the repository interfaces
// where practical:
//
//	diseases, enriched, backend, err := badger.NewMemoryRepositories()
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - DiseaseRepository: raw disease records as loaded from the corpus
//   - EnrichedRepository: enriched diseases produced by the enrichment pass
//   - SnapshotRepository: thesaurus and corpus versions of the last enrichment
//   - CheckpointRepository: resumable progress of batch processors
//
// Records are keyed by core.IDFromContent of the disease id, so listing
// order is key order, not id order. Listing methods that promise id order
// say so.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
