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


package storage

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/medsearch/core"
)

func marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

func unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return nil
}

// MarshalDisease serializes a DiseaseRecord to bytes.
func MarshalDisease(record *core.DiseaseRecord) ([]byte, error) {
	return marshal(record)
}

// UnmarshalDisease deserializes a DiseaseRecord from bytes.
func UnmarshalDisease(data []byte) (*core.DiseaseRecord, error) {
	var record core.DiseaseRecord
	if err := unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalEnriched serializes an EnrichedDisease to bytes.
func MarshalEnriched(disease *core.EnrichedDisease) ([]byte, error) {
	return marshal(disease)
}

// UnmarshalEnriched deserializes an EnrichedDisease from bytes.
func UnmarshalEnriched(data []byte) (*core.EnrichedDisease, error) {
	var disease core.EnrichedDisease
	if err := unmarshal(data, &disease); err != nil {
		return nil, err
	}
	return &disease, nil
}

// MarshalSnapshot serializes a Snapshot to bytes.
func MarshalSnapshot(snapshot *core.Snapshot) ([]byte, error) {
	return marshal(snapshot)
}

// UnmarshalSnapshot deserializes a Snapshot from bytes.
func UnmarshalSnapshot(data []byte) (*core.Snapshot, error) {
	var snapshot core.Snapshot
	if err := unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) ([]byte, error) {
	return marshal(checkpoint)
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	var checkpoint core.Checkpoint
	if err := unmarshal(data, &checkpoint); err != nil {
		return nil, err
	}
	return &checkpoint, nil
}
