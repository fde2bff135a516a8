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


package reindex

import (
	"context"

	"github.com/poiesic/medsearch/core"
	"github.com/poiesic/medsearch/storage"
)

// DefaultBatchSize is the default number of diseases fetched per batch.
const DefaultBatchSize = 100

// DiseaseIterator pages through stored diseases in key order.
type DiseaseIterator struct {
	repo      storage.DiseaseRepository
	batchSize int
}

// NewDiseaseIterator creates an iterator fetching batchSize records at a time.
// Non-positive sizes fall back to DefaultBatchSize.
func NewDiseaseIterator(repo storage.DiseaseRepository, batchSize int) *DiseaseIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &DiseaseIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn with successive batches of records whose key is greater
// than after. Pass 0 to start from the first record. Iteration stops at the
// first error from fn; ctx is checked between batches.
func (it *DiseaseIterator) ForEach(ctx context.Context, after core.ID, fn func([]*core.DiseaseRecord) error) error {
	cursor := after
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := it.repo.ListDiseases(ctx, cursor, it.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if err := fn(batch); err != nil {
			return err
		}

		if len(batch) < it.batchSize {
			return nil
		}
		cursor = batch[len(batch)-1].Key()
	}
}
