package store

import (
	"encoding/binary"
	"math"
)

// Zone embeddings are stored inline on the zone row as a binary BLOB,
// 8 bytes per float64, little-endian. A NULL/empty BLOB means the zone
// was never fingerprinted.

// encodeEmbedding converts a []float64 to a binary BLOB (8 bytes per float64).
func encodeEmbedding(vec []float64) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, len(vec)*8)
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// decodeEmbedding converts a binary BLOB back to []float64.
func decodeEmbedding(buf []byte) []float64 {
	if len(buf) < 8 {
		return nil
	}
	n := len(buf) / 8
	vec := make([]float64, n)
	for i := 0; i < n; i++ {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return vec
}
