// Package prompt assembles the augmented prompt sent to the language model.
// It selects retrieved chunks under a token budget, numbers them as context
// blocks, and emits matching citations so answers can point back at their
// sources.
package prompt

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/54b3r/docqa-go/internal/rag"
	"github.com/54b3r/docqa-go/internal/textproc"
)

// Defaults applied when the corresponding Config field is zero.
const (
	DefaultMaxContextTokens = 2048
	DefaultMaxContextChunks = 10
	DefaultSnippetMaxChars  = 200
)

// DefaultSystemPrompt instructs the model to answer from the supplied
// context and cite sources by block number.
const DefaultSystemPrompt = `You are a helpful assistant that answers questions using the provided context.
Base your answer only on the context blocks below. Cite the blocks you use
by their number, like [1] or [2]. If the context does not contain the
answer, say so instead of guessing.`

// NoContextMarker is placed in the context section when retrieval found
// nothing usable, so the model knows the corpus came up empty.
const NoContextMarker = "(no relevant context found)"

// Config controls prompt assembly.
type Config struct {
	// SystemPrompt is the instruction block. Empty means DefaultSystemPrompt.
	SystemPrompt string
	// MaxContextTokens is the whitespace-token budget across all included
	// chunks. Zero means DefaultMaxContextTokens.
	MaxContextTokens int
	// MaxContextChunks caps how many chunks are included regardless of the
	// token budget. Zero means DefaultMaxContextChunks.
	MaxContextChunks int
	// SnippetMaxChars caps citation snippet length. Zero means
	// DefaultSnippetMaxChars.
	SnippetMaxChars int
}

// Builder turns search results into a prompt plus citations.
type Builder struct {
	cfg Config
}

// NewBuilder returns a Builder with zero Config fields replaced by defaults.
func NewBuilder(cfg Config) *Builder {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.MaxContextTokens <= 0 {
		cfg.MaxContextTokens = DefaultMaxContextTokens
	}
	if cfg.MaxContextChunks <= 0 {
		cfg.MaxContextChunks = DefaultMaxContextChunks
	}
	if cfg.SnippetMaxChars <= 0 {
		cfg.SnippetMaxChars = DefaultSnippetMaxChars
	}
	return &Builder{cfg: cfg}
}

// Build assembles the final prompt from ranked results. Chunks are taken in
// rank order until the token budget or chunk cap is hit; the top result is
// always included even when it alone exceeds the budget, so retrieval that
// found anything contributes at least one block. The returned citations
// correspond one-to-one, in order, with the numbered context blocks.
func (b *Builder) Build(query string, results []rag.SearchResult, titles map[string]string) (string, []rag.Citation) {
	selected := b.selectChunks(results)

	var sb strings.Builder
	sb.WriteString(b.cfg.SystemPrompt)
	sb.WriteString("\n\nContext:\n")

	citations := make([]rag.Citation, 0, len(selected))
	if len(selected) == 0 {
		sb.WriteString(NoContextMarker)
		sb.WriteString("\n")
	}
	for i, res := range selected {
		number := i + 1
		title := titles[res.Chunk.DocumentID]
		if title == "" {
			title = res.Chunk.DocumentID
		}
		fmt.Fprintf(&sb, "[%d] (%s)\n%s\n\n", number, title, res.Chunk.Content)
		citations = append(citations, rag.Citation{
			ID:         uuid.NewString(),
			Number:     number,
			ChunkID:    res.Chunk.ID,
			DocumentID: res.Chunk.DocumentID,
			Snippet:    Snippet(res.Chunk.Content, b.cfg.SnippetMaxChars),
			Score:      res.Score,
		})
	}

	sb.WriteString("\nQuestion: ")
	sb.WriteString(query)
	sb.WriteString("\n\nAnswer:")
	return sb.String(), citations
}

// selectChunks walks results in rank order, accumulating token counts until
// the budget or chunk cap is exhausted.
func (b *Builder) selectChunks(results []rag.SearchResult) []rag.SearchResult {
	var selected []rag.SearchResult
	budget := b.cfg.MaxContextTokens
	for _, res := range results {
		if len(selected) >= b.cfg.MaxContextChunks {
			break
		}
		tokens := res.Chunk.TokenCount
		if tokens == 0 {
			tokens = textproc.CountTokens(res.Chunk.Content)
		}
		if tokens > budget && len(selected) > 0 {
			break
		}
		selected = append(selected, res)
		budget -= tokens
		if budget <= 0 {
			break
		}
	}
	return selected
}

// Snippet truncates s to at most maxChars characters, appending an ellipsis
// when content was cut. Truncation is rune-aware so multibyte text is never
// split mid-character.
func Snippet(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars]) + "…"
}
