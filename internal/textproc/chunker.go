package textproc

import (
	"strings"
)

// Default chunking parameters, tuned for embedding models with a ~512 token
// input window.
const (
	// DefaultChunkSize is the token-window width per chunk.
	DefaultChunkSize = 256
	// DefaultMinChunkSize is the minimum token count for a non-final
	// window to be emitted.
	DefaultMinChunkSize = 16
)

// ChunkConfig controls the token-window chunker.
type ChunkConfig struct {
	// ChunkSize is the window width in tokens. Defaults to
	// DefaultChunkSize if zero.
	ChunkSize int

	// MinChunkSize is the minimum token count a non-final window must
	// reach to be emitted. The final window is always emitted so a
	// document's tail is never dropped. Defaults to DefaultMinChunkSize
	// if zero.
	MinChunkSize int
}

// ChunkedText is one emitted chunk: a disjoint, contiguous token window of
// the normalized document.
type ChunkedText struct {
	// Content is the window's tokens rejoined with single spaces. This is
	// a lossy reconstruction — original inter-token spacing is not
	// preserved.
	Content string

	// TokenCount is the number of tokens in the window.
	TokenCount int

	// Index is the 0-based emission index of this chunk.
	Index int

	// StartToken is the offset of the window's first token in the
	// document's token sequence.
	StartToken int

	// EndToken is the offset one past the window's last token.
	EndToken int
}

// Chunk normalizes and tokenizes rawText, then walks a sliding window of
// cfg.ChunkSize tokens with no overlap — successive windows are disjoint
// and contiguous. A window shorter than cfg.MinChunkSize is skipped unless
// it is the final window of the document. Empty or whitespace-only input
// yields no chunks.
func Chunk(rawText string, cfg ChunkConfig) []ChunkedText {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.MinChunkSize <= 0 {
		cfg.MinChunkSize = DefaultMinChunkSize
	}

	tokens := Tokenize(Normalize(rawText))
	if len(tokens) == 0 {
		return nil
	}

	var chunks []ChunkedText
	for start := 0; start < len(tokens); start += cfg.ChunkSize {
		end := min(start+cfg.ChunkSize, len(tokens))
		final := end == len(tokens)

		if end-start < cfg.MinChunkSize && !final {
			continue
		}

		chunks = append(chunks, ChunkedText{
			Content:    strings.Join(tokens[start:end], " "),
			TokenCount: end - start,
			Index:      len(chunks),
			StartToken: start,
			EndToken:   end,
		})
	}

	return chunks
}
