// Package search ranks corpus chunks against a query embedding using exact
// brute-force cosine similarity. The corpus sizes this engine targets fit
// comfortably in memory, so a full scan beats the operational cost of an
// approximate index.
package search

import (
	"math"
	"sort"

	"github.com/54b3r/docqa-go/internal/rag"
)

// DefaultTopK is the number of results returned when Config.TopK is unset.
const DefaultTopK = 5

// Config controls result selection.
type Config struct {
	// TopK is the maximum number of results to return. Zero means DefaultTopK.
	TopK int
	// MinScore filters out results scoring below this threshold. Zero keeps
	// everything with non-negative similarity.
	MinScore float64
}

// CosineSimilarity returns the cosine of the angle between a and b,
// accumulated in float64 to limit rounding drift over long vectors. Vectors
// of mismatched length or zero magnitude score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		magA += av * av
		magB += bv * bv
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// Rank scores every chunk that has a vector against the query embedding and
// returns the top results, highest similarity first, with 1-based ranks.
// Chunks without an entry in vectors are skipped silently: a partially
// embedded corpus degrades to searching what was embedded.
func Rank(query []float32, chunks []rag.Chunk, vectors map[string][]float32, cfg Config) []rag.SearchResult {
	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	results := make([]rag.SearchResult, 0, len(chunks))
	for _, c := range chunks {
		vec, ok := vectors[c.ID]
		if !ok {
			continue
		}
		score := CosineSimilarity(query, vec)
		if score < cfg.MinScore {
			continue
		}
		results = append(results, rag.SearchResult{Chunk: c, Score: score})
	}

	// Stable sort keeps input order among equal scores deterministic.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}
