// Package rag defines the core data model and collaborator interfaces for
// the docqa retrieval-augmented generation engine: documents, chunks, search
// results, citations, answers, and the Embedder/Generator contracts.
// Concrete implementations (Ollama, OpenAI, eino chat models, mocks) satisfy
// these interfaces so the engine layer never depends on a specific backend.
package rag

import (
	"context"
)

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a single text into its embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts a batch of texts into their corresponding
	// embeddings. The returned slice is parallel to the input slice —
	// embeddings[i] is the vector for texts[i].
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed length of vectors produced by this
	// embedder. Every vector returned by Embed/EmbedBatch has this length.
	Dimensions() int
}

// Fragment is a single piece of streamed generator output. Text carries an
// incremental slice of the response; Err, when non-nil, reports a mid-stream
// failure and is the last value delivered before the channel closes.
type Fragment struct {
	// Text is the incremental response text. Empty when Err is set.
	Text string

	// Err is the generation failure, if any. The channel is closed
	// immediately after a Fragment with Err set.
	Err error
}

// Generator is the interface for producing text from a fully assembled
// prompt. Implementations must be safe to call from multiple goroutines.
type Generator interface {
	// Generate produces the complete response for the given prompt,
	// blocking until generation finishes.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateStream produces the response incrementally. The returned
	// channel delivers fragments in order and is closed when generation
	// completes or fails. Cancelling ctx stops the producer and releases
	// any generator-side resources. The channel is bounded — a slow
	// consumer applies backpressure to the producer.
	GenerateStream(ctx context.Context, prompt string) (<-chan Fragment, error)
}
