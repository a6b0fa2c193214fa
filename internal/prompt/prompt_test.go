package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/54b3r/docqa-go/internal/rag"
)

func resultWithTokens(id string, tokens int) rag.SearchResult {
	words := make([]string, tokens)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return rag.SearchResult{
		Chunk: rag.Chunk{
			ID:         id,
			DocumentID: "doc-" + id,
			Content:    strings.Join(words, " "),
			TokenCount: tokens,
		},
		Score: 0.9,
	}
}

func Test_Build_SectionOrder(t *testing.T) {
	t.Parallel()
	b := NewBuilder(Config{})
	results := []rag.SearchResult{resultWithTokens("c1", 5)}

	got, _ := b.Build("what is alpha?", results, map[string]string{"doc-c1": "Alpha Doc"})

	sysIdx := strings.Index(got, DefaultSystemPrompt)
	ctxIdx := strings.Index(got, "Context:")
	qIdx := strings.Index(got, "Question: what is alpha?")
	if sysIdx != 0 {
		t.Errorf("prompt does not start with system prompt")
	}
	if !(sysIdx < ctxIdx && ctxIdx < qIdx) {
		t.Errorf("sections out of order: sys=%d ctx=%d q=%d", sysIdx, ctxIdx, qIdx)
	}
	if !strings.HasSuffix(got, "Answer:") {
		t.Errorf("prompt does not end with Answer: marker:\n%s", got)
	}
	if !strings.Contains(got, "[1] (Alpha Doc)") {
		t.Errorf("context block missing numbered header with title:\n%s", got)
	}
}

func Test_Build_CitationsMatchBlocks(t *testing.T) {
	t.Parallel()
	b := NewBuilder(Config{})
	results := []rag.SearchResult{
		resultWithTokens("c1", 4),
		resultWithTokens("c2", 4),
		resultWithTokens("c3", 4),
	}

	prompt, citations := b.Build("q", results, nil)
	if len(citations) != 3 {
		t.Fatalf("got %d citations, want 3", len(citations))
	}
	for i, c := range citations {
		if c.Number != i+1 {
			t.Errorf("citation %d has Number %d", i, c.Number)
		}
		if c.ChunkID != results[i].Chunk.ID {
			t.Errorf("citation %d ChunkID = %s, want %s", i, c.ChunkID, results[i].Chunk.ID)
		}
		if c.ID == "" {
			t.Errorf("citation %d has empty ID", i)
		}
		if !strings.Contains(prompt, fmt.Sprintf("[%d] ", c.Number)) {
			t.Errorf("prompt missing block marker for citation %d", c.Number)
		}
	}
}

func Test_Build_TokenBudgetStopsSelection(t *testing.T) {
	t.Parallel()
	b := NewBuilder(Config{MaxContextTokens: 10})
	results := []rag.SearchResult{
		resultWithTokens("c1", 6),
		resultWithTokens("c2", 6), // would push the total to 12
		resultWithTokens("c3", 2),
	}

	_, citations := b.Build("q", results, nil)
	if len(citations) != 1 {
		t.Fatalf("got %d citations, want 1 (budget stops at rank order, no skipping ahead)", len(citations))
	}
	if citations[0].ChunkID != "c1" {
		t.Errorf("selected chunk = %s, want c1", citations[0].ChunkID)
	}
}

func Test_Build_OversizedTopResultStillIncluded(t *testing.T) {
	t.Parallel()
	b := NewBuilder(Config{MaxContextTokens: 10})
	results := []rag.SearchResult{resultWithTokens("huge", 50)}

	prompt, citations := b.Build("q", results, nil)
	if len(citations) != 1 {
		t.Fatalf("got %d citations, want the oversized top result included", len(citations))
	}
	if strings.Contains(prompt, NoContextMarker) {
		t.Errorf("prompt contains no-context marker despite a result being available")
	}
}

func Test_Build_MaxChunksCap(t *testing.T) {
	t.Parallel()
	b := NewBuilder(Config{MaxContextChunks: 2, MaxContextTokens: 1000})
	results := []rag.SearchResult{
		resultWithTokens("c1", 2),
		resultWithTokens("c2", 2),
		resultWithTokens("c3", 2),
	}

	_, citations := b.Build("q", results, nil)
	if len(citations) != 2 {
		t.Errorf("got %d citations, want 2 (chunk cap)", len(citations))
	}
}

func Test_Build_EmptyResults(t *testing.T) {
	t.Parallel()
	b := NewBuilder(Config{})

	prompt, citations := b.Build("anything out there?", nil, nil)
	if len(citations) != 0 {
		t.Errorf("got %d citations for empty results, want 0", len(citations))
	}
	if !strings.Contains(prompt, NoContextMarker) {
		t.Errorf("prompt missing no-context marker:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Question: anything out there?") {
		t.Errorf("prompt missing question section")
	}
	if !strings.HasSuffix(prompt, "Answer:") {
		t.Errorf("prompt does not end with Answer: marker")
	}
}

func Test_Build_UnknownTitleFallsBackToDocumentID(t *testing.T) {
	t.Parallel()
	b := NewBuilder(Config{})
	results := []rag.SearchResult{resultWithTokens("c1", 3)}

	prompt, _ := b.Build("q", results, map[string]string{})
	if !strings.Contains(prompt, "[1] (doc-c1)") {
		t.Errorf("expected document ID fallback in block header:\n%s", prompt)
	}
}

func Test_Snippet(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"shorter than limit", "short text", 50, "short text"},
		{"exactly at limit", "abcde", 5, "abcde"},
		{"truncated", "abcdefgh", 5, "abcde…"},
		{"multibyte safe", "héllo wörld", 4, "héll…"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Snippet(tt.in, tt.max); got != tt.want {
				t.Errorf("Snippet(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func Test_Build_SnippetTruncation(t *testing.T) {
	t.Parallel()
	b := NewBuilder(Config{SnippetMaxChars: 10})
	results := []rag.SearchResult{resultWithTokens("c1", 20)}

	_, citations := b.Build("q", results, nil)
	if len(citations) != 1 {
		t.Fatalf("got %d citations, want 1", len(citations))
	}
	snippet := citations[0].Snippet
	if len([]rune(snippet)) > 11 { // 10 chars + ellipsis
		t.Errorf("snippet %q longer than limit", snippet)
	}
	if !strings.HasSuffix(snippet, "…") {
		t.Errorf("truncated snippet %q missing ellipsis", snippet)
	}
}
