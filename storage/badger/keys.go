package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/medsearch/core"
)

// Key prefixes for different data types
const (
	diseasePrefix  = "disraw:"
	enrichedPrefix = "disenr:"
	snapshotPrefix = "snap"
)

// makeRecordKey generates a fixed-width key: prefix followed by the
// BigEndian id, so iteration follows numeric key order.
func makeRecordKey(prefix string, id core.ID) []byte {
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeDiseaseKey generates the key of a raw disease record.
func makeDiseaseKey(id core.ID) []byte {
	return makeRecordKey(diseasePrefix, id)
}

// makeEnrichedKey generates the key of an enriched disease.
func makeEnrichedKey(id core.ID) []byte {
	return makeRecordKey(enrichedPrefix, id)
}

// makeSnapshotKey generates a key for a named snapshot.
func makeSnapshotKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", snapshotPrefix, name))
}

// makeCheckpointKey generates a key for processor checkpoints.
func makeCheckpointKey(processorType string) []byte {
	return []byte(fmt.Sprintf("%s:chkpt", processorType))
}
