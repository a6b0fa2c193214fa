package embedder

import (
	"context"
	"hash/fnv"
	"math"
)

// MockEmbedder is a deterministic, offline rag.Embedder for tests and demos.
// The vector for a given text is derived from a hash of the text, so equal
// texts always embed identically and distinct texts almost never collide.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder constructs a MockEmbedder producing vectors of the given
// length.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 8
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns the deterministic vector for text.
func (e *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return e.vectorFor(text), nil
}

// EmbedBatch returns deterministic vectors parallel to texts.
func (e *MockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		vecs[i] = e.vectorFor(t)
	}
	return vecs, nil
}

// Dimensions returns the configured vector length.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// vectorFor derives a unit-length pseudo-embedding from a hash of text.
func (e *MockEmbedder) vectorFor(text string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, e.dimensions)
	var norm float64
	for i := range vec {
		// xorshift64 over the seed gives a stable per-index value.
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		v := float64(int64(seed%2001)-1000) / 1000.0
		vec[i] = float32(v)
		norm += v * v
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
