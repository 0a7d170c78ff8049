package graphcache

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/taigatrans/routegrid/model"
)

// Snapshots are gob-encoded: decode speed matters more than readability here,
// and the artifact is only ever read back by this module's consumers.

func encodeSnapshot(snap model.GraphSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, fmt.Errorf("encode snapshot %s: %w", snap.Version, err)
	}
	return buf.Bytes(), nil
}

func decodeSnapshot(data []byte) (model.GraphSnapshot, error) {
	var snap model.GraphSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return model.GraphSnapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
