package textproc

import (
	"fmt"
	"strings"
	"testing"
)

// tokens returns a space-separated string of n distinct tokens.
func tokens(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("t%d", i)
	}
	return strings.Join(parts, " ")
}

func Test_Chunk_ExactWindows(t *testing.T) {
	t.Parallel()
	got := Chunk(tokens(25), ChunkConfig{ChunkSize: 10, MinChunkSize: 3})

	if len(got) != 3 {
		t.Fatalf("want 3 chunks, got %d", len(got))
	}
	wantCounts := []int{10, 10, 5}
	for i, c := range got {
		if c.TokenCount != wantCounts[i] {
			t.Errorf("chunk %d: want %d tokens, got %d", i, wantCounts[i], c.TokenCount)
		}
		if c.Index != i {
			t.Errorf("chunk %d: want index %d, got %d", i, i, c.Index)
		}
	}
}

func Test_Chunk_Contiguity(t *testing.T) {
	t.Parallel()
	const n, size = 103, 10
	got := Chunk(tokens(n), ChunkConfig{ChunkSize: size, MinChunkSize: 1})

	// ceil(103/10) = 11 chunks, every non-final chunk full-width.
	if len(got) != 11 {
		t.Fatalf("want 11 chunks, got %d", len(got))
	}
	next := 0
	for i, c := range got {
		if c.StartToken != next {
			t.Errorf("chunk %d: want start %d, got %d", i, next, c.StartToken)
		}
		if i < len(got)-1 && c.TokenCount != size {
			t.Errorf("non-final chunk %d: want %d tokens, got %d", i, size, c.TokenCount)
		}
		next = c.EndToken
	}
	if next != n {
		t.Errorf("last chunk ends at %d, want %d", next, n)
	}
}

func Test_Chunk_ContentCoverage(t *testing.T) {
	t.Parallel()
	input := tokens(47)
	got := Chunk(input, ChunkConfig{ChunkSize: 8, MinChunkSize: 2})

	var rejoined []string
	for _, c := range got {
		rejoined = append(rejoined, c.Content)
	}
	if joined := strings.Join(rejoined, " "); joined != input {
		t.Errorf("concatenated chunks differ from input:\n got %q\nwant %q", joined, input)
	}
}

func Test_Chunk_FinalWindowAlwaysEmitted(t *testing.T) {
	t.Parallel()
	// Final window has 1 token, below MinChunkSize of 5 — still emitted.
	got := Chunk(tokens(11), ChunkConfig{ChunkSize: 10, MinChunkSize: 5})
	if len(got) != 2 {
		t.Fatalf("want 2 chunks, got %d", len(got))
	}
	if got[1].TokenCount != 1 {
		t.Errorf("final chunk: want 1 token, got %d", got[1].TokenCount)
	}
}

func Test_Chunk_EmptyInput(t *testing.T) {
	t.Parallel()
	for _, input := range []string{"", "   ", "\n\n\t"} {
		if got := Chunk(input, ChunkConfig{ChunkSize: 10, MinChunkSize: 1}); len(got) != 0 {
			t.Errorf("Chunk(%q): want 0 chunks, got %d", input, len(got))
		}
	}
}

func Test_Chunk_SingleUndersizedDocument(t *testing.T) {
	t.Parallel()
	got := Chunk("lone", ChunkConfig{ChunkSize: 100, MinChunkSize: 10})
	if len(got) != 1 {
		t.Fatalf("want 1 chunk, got %d", len(got))
	}
	if got[0].Content != "lone" || got[0].TokenCount != 1 || got[0].Index != 0 {
		t.Errorf("unexpected chunk: %+v", got[0])
	}
}

func Test_Chunk_NormalizesBeforeSplitting(t *testing.T) {
	t.Parallel()
	got := Chunk("a\r\n\r\nb\tc   d", ChunkConfig{ChunkSize: 2, MinChunkSize: 1})
	if len(got) != 2 {
		t.Fatalf("want 2 chunks, got %d", len(got))
	}
	if got[0].Content != "a b" || got[1].Content != "c d" {
		t.Errorf("unexpected contents: %q, %q", got[0].Content, got[1].Content)
	}
}

func Test_Chunk_DefaultsApplied(t *testing.T) {
	t.Parallel()
	got := Chunk(tokens(DefaultChunkSize+1), ChunkConfig{})
	if len(got) != 2 {
		t.Fatalf("want 2 chunks with defaults, got %d", len(got))
	}
	if got[0].TokenCount != DefaultChunkSize {
		t.Errorf("first chunk: want %d tokens, got %d", DefaultChunkSize, got[0].TokenCount)
	}
}
