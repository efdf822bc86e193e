package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/LilVoxy/order_analytics/ETL/models"
	"github.com/golang/snappy"
)

// Snapshot is the compact form of a run's reports kept in the run log.
type Snapshot struct {
	Digest     string // hex SHA-256 of the uncompressed JSON
	Compressed []byte // snappy block of the JSON
	RawSize    int
}

// EncodeSnapshot serializes r to JSON, digests it and compresses it with snappy.
func EncodeSnapshot(r *models.Reports) (*Snapshot, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal reports: %w", err)
	}
	sum := sha256.Sum256(data)
	return &Snapshot{
		Digest:     hex.EncodeToString(sum[:]),
		Compressed: snappy.Encode(nil, data),
		RawSize:    len(data),
	}, nil
}

// DecodeSnapshot restores reports from a compressed snapshot.
func DecodeSnapshot(compressed []byte) (*models.Reports, error) {
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	var r models.Reports
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &r, nil
}
