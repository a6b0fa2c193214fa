// Package vectorstore maintains the chunkID → embedding mapping that
// similarity search reads. Vectors live in an in-memory cache for fast
// brute-force scans, with optional write-through persistence so a vector
// observed as stored survives a restart.
package vectorstore

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/54b3r/docqa-go/internal/rag"
)

// elemSize is the serialized size of one vector element (float32).
const elemSize = 4

// Serialize encodes a float32 vector as raw little-endian bytes, 4 bytes per
// element, with no length prefix. The byte length therefore always equals
// len(v) * 4.
func Serialize(v []float32) []byte {
	buf := make([]byte, len(v)*elemSize)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*elemSize:], math.Float32bits(f))
	}
	return buf
}

// Deserialize decodes a byte slice produced by Serialize. A byte length that
// is not a multiple of the element size is corruption, reported as a
// validation error.
func Deserialize(data []byte) ([]float32, error) {
	if len(data)%elemSize != 0 {
		return nil, fmt.Errorf("vectorstore: %w: vector blob length %d is not a multiple of %d", rag.ErrValidation, len(data), elemSize)
	}
	v := make([]float32, len(data)/elemSize)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*elemSize:]))
	}
	return v, nil
}
