package rag

import (
	"time"
)

// Document is a source text ingested into the corpus. Content is immutable
// after creation — updates replace the whole record and bump UpdatedAt.
// Deleting a document cascades to all chunks and vectors derived from it.
type Document struct {
	// ID is the opaque unique identifier for this document.
	ID string `json:"id"`

	// Title is the human-readable document title.
	Title string `json:"title"`

	// Content is the full raw text of the document.
	Content string `json:"content"`

	// Source is the optional origin of the document (file path, URL).
	Source string `json:"source,omitempty"`

	// CreatedAt is when the document was first persisted.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the document record was last replaced.
	UpdatedAt time.Time `json:"updatedAt"`
}

// Chunk is a contiguous, token-bounded slice of a document's normalized
// text. Within a document, Index values are contiguous starting at 0 and
// strictly increasing in creation order.
type Chunk struct {
	// ID is the unique identifier for this chunk.
	ID string `json:"id"`

	// DocumentID is the owning document's ID.
	DocumentID string `json:"documentId"`

	// Content is the chunk text (tokens rejoined with single spaces).
	Content string `json:"content"`

	// TokenCount is the whitespace-token count of Content.
	TokenCount int `json:"tokenCount"`

	// Index is the 0-based position of this chunk within its document.
	Index int `json:"index"`

	// CreatedAt is when the chunk was persisted.
	CreatedAt time.Time `json:"createdAt"`
}

// SearchResult is a chunk ranked against a query. Results are ephemeral —
// produced fresh per query, never persisted.
type SearchResult struct {
	// Chunk is the matched chunk.
	Chunk Chunk `json:"chunk"`

	// Score is the cosine similarity between the chunk's vector and the
	// query vector, in [-1, 1].
	Score float64 `json:"score"`

	// Rank is the 1-based position of this result in the ranked list.
	Rank int `json:"rank"`
}

// SearchOptions are optional per-call retrieval overrides. Zero fields fall
// back to the engine's configured defaults, so the zero value is a valid
// "use the defaults" request.
type SearchOptions struct {
	// TopK caps the number of results returned for this call. Zero means
	// the configured default.
	TopK int `json:"topK,omitempty"`

	// MinScore drops results scoring below this value for this call. Zero
	// means the configured default.
	MinScore float64 `json:"minScore,omitempty"`
}

// Citation binds a span of generated text to its source chunk. Numbers are
// assigned in the order chunks were selected for the prompt (highest score
// first), not by chunk or document identity.
type Citation struct {
	// ID is the unique identifier for this citation.
	ID string `json:"id"`

	// Number is the 1-based sequential citation number as it appears in
	// the prompt's context section.
	Number int `json:"number"`

	// ChunkID is the cited chunk's ID.
	ChunkID string `json:"chunkId"`

	// DocumentID is the cited chunk's owning document ID.
	DocumentID string `json:"documentId"`

	// Snippet is the chunk content truncated for display. Truncated
	// snippets end with an ellipsis marker.
	Snippet string `json:"snippet"`

	// Score is the relevance score the chunk was selected with.
	Score float64 `json:"score"`
}

// Answer is the complete result of a blocking ask. The streaming variant
// delivers the same information incrementally as StreamToken events.
type Answer struct {
	// ID is the unique identifier for this answer.
	ID string `json:"id"`

	// Query is the original user question.
	Query string `json:"query"`

	// Text is the generated answer text.
	Text string `json:"text"`

	// Citations lists the source chunks the prompt was built from, in
	// citation-number order.
	Citations []Citation `json:"citations"`

	// CreatedAt is when the answer was produced.
	CreatedAt time.Time `json:"createdAt"`

	// GenerationTime is the wall-clock duration of the generate call.
	GenerationTime time.Duration `json:"generationTimeMs"`
}

// StreamTokenType discriminates the StreamToken union.
type StreamTokenType string

const (
	// TokenContent carries an incremental fragment of answer text.
	TokenContent StreamTokenType = "content"
	// TokenCitations carries the full citation list, delivered once after
	// all content fragments.
	TokenCitations StreamTokenType = "citations"
	// TokenMetadata carries final stream statistics, delivered once after
	// the citations event.
	TokenMetadata StreamTokenType = "metadata"
	// TokenError carries a failure message and terminates the stream —
	// no further events follow it.
	TokenError StreamTokenType = "error"
)

// StreamMetadata is the payload of the terminal metadata event.
type StreamMetadata struct {
	// TokensGenerated is the number of content fragments delivered.
	TokensGenerated int `json:"tokensGenerated"`

	// GenerationTime is the wall-clock duration of the stream.
	GenerationTime time.Duration `json:"generationTimeMs"`

	// CitationsUsed is the number of citations in the citations event.
	CitationsUsed int `json:"citationsUsed"`
}

// StreamToken is one event in a streaming ask. Ordering contract: all
// content tokens precede the single citations token, which precedes the
// single metadata token; an error token terminates the stream immediately.
type StreamToken struct {
	// Type discriminates which payload field is populated.
	Type StreamTokenType `json:"type"`

	// Content is the text fragment for TokenContent events.
	Content string `json:"content,omitempty"`

	// Citations is the citation list for TokenCitations events.
	Citations []Citation `json:"citations,omitempty"`

	// Metadata is the statistics payload for TokenMetadata events.
	Metadata *StreamMetadata `json:"metadata,omitempty"`

	// Err is the failure message for TokenError events.
	Err string `json:"error,omitempty"`
}

// Stats summarises the corpus for reporting endpoints and the CLI.
type Stats struct {
	// Documents is the number of persisted documents.
	Documents int `json:"documents"`

	// Chunks is the number of persisted chunks.
	Chunks int `json:"chunks"`

	// Vectors is the number of embeddings held in the vector cache.
	Vectors int `json:"vectors"`

	// VectorMemoryBytes is the estimated in-memory size of the vector
	// cache (vectors × dimensions × 4 bytes).
	VectorMemoryBytes int64 `json:"vectorMemoryBytes"`

	// Dimensions is the process-wide embedding dimensionality.
	Dimensions int `json:"dimensions"`
}
