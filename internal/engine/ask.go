package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/54b3r/docqa-go/internal/logging"
	"github.com/54b3r/docqa-go/internal/rag"
	"github.com/54b3r/docqa-go/internal/textproc"
)

// tokenBuffer bounds the outgoing stream channel so a stalled reader applies
// backpressure instead of buffering the whole answer.
const tokenBuffer = 8

// Ask answers a query as a token stream. It never fails synchronously: every
// failure mode is delivered as a terminal error token on the returned
// channel, so callers have exactly one consumption path. Token order is
// content fragments, then one citations token, then one metadata token; an
// error token, when present, is always last. Per-call opts override the
// configured retrieval settings.
func (e *Engine) Ask(ctx context.Context, query string, opts ...rag.SearchOptions) <-chan rag.StreamToken {
	out := make(chan rag.StreamToken, tokenBuffer)
	go func() {
		defer close(out)
		e.streamAnswer(ctx, query, opts, out)
	}()
	return out
}

// streamAnswer runs retrieval, prompting, and generation, emitting tokens to
// out. It returns after the terminal token (metadata or error) is sent.
func (e *Engine) streamAnswer(ctx context.Context, query string, opts []rag.SearchOptions, out chan<- rag.StreamToken) {
	log := logging.FromContext(ctx)
	start := time.Now()

	promptText, citations, err := e.retrieve(ctx, query, opts)
	if err != nil {
		e.sendError(ctx, out, err)
		return
	}

	fragments, err := e.generator.GenerateStream(ctx, promptText)
	if err != nil {
		e.sendError(ctx, out, fmt.Errorf("engine: start generation: %w: %w", rag.ErrGeneration, err))
		return
	}

	generated := 0
	for f := range fragments {
		if f.Err != nil {
			e.sendError(ctx, out, fmt.Errorf("engine: generation: %w: %w", rag.ErrGeneration, f.Err))
			return
		}
		generated++
		if !e.send(ctx, out, rag.StreamToken{Type: rag.TokenContent, Content: f.Text}) {
			return
		}
	}
	if ctx.Err() != nil {
		e.sendError(ctx, out, fmt.Errorf("engine: generation: %w", ctx.Err()))
		return
	}

	if !e.send(ctx, out, rag.StreamToken{Type: rag.TokenCitations, Citations: citations}) {
		return
	}
	elapsed := time.Since(start)
	e.send(ctx, out, rag.StreamToken{
		Type: rag.TokenMetadata,
		Metadata: &rag.StreamMetadata{
			TokensGenerated: generated,
			GenerationTime:  elapsed,
			CitationsUsed:   len(citations),
		},
	})

	log.Debug("engine: streamed answer",
		slog.Int("fragments", generated),
		slog.Int("citations", len(citations)),
		slog.Duration("elapsed", elapsed))
}

// AskComplete answers a query in one blocking call. It shares the retrieval
// path with Ask, so both produce the same prompt and citations for the same
// corpus state.
func (e *Engine) AskComplete(ctx context.Context, query string, opts ...rag.SearchOptions) (*rag.Answer, error) {
	start := time.Now()

	promptText, citations, err := e.retrieve(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	text, err := e.generator.Generate(ctx, promptText)
	if err != nil {
		return nil, fmt.Errorf("engine: generation: %w: %w", rag.ErrGeneration, err)
	}

	return &rag.Answer{
		ID:             uuid.NewString(),
		Query:          query,
		Text:           text,
		Citations:      citations,
		CreatedAt:      time.Now(),
		GenerationTime: time.Since(start),
	}, nil
}

// retrieve runs the shared pre-generation pipeline: validate, search, and
// build the prompt with citations.
func (e *Engine) retrieve(ctx context.Context, query string, opts []rag.SearchOptions) (string, []rag.Citation, error) {
	if strings.TrimSpace(query) == "" || len(textproc.Tokenize(query)) == 0 {
		return "", nil, fmt.Errorf("engine: ask: empty query: %w", rag.ErrValidation)
	}

	results, err := e.Search(ctx, query, opts...)
	if err != nil {
		return "", nil, err
	}

	titles, err := e.documentTitles(ctx, results)
	if err != nil {
		return "", nil, err
	}

	promptText, citations := e.builder.Build(query, results, titles)
	return promptText, citations, nil
}

// documentTitles collects the titles for every document referenced by results.
func (e *Engine) documentTitles(ctx context.Context, results []rag.SearchResult) (map[string]string, error) {
	titles := make(map[string]string)
	for _, r := range results {
		if _, ok := titles[r.Chunk.DocumentID]; ok {
			continue
		}
		doc, err := e.store.GetDocument(ctx, r.Chunk.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("engine: resolve document titles: %w", err)
		}
		titles[doc.ID] = doc.Title
	}
	return titles, nil
}

// send delivers a token unless ctx is cancelled. Returns false when the
// stream should stop.
func (e *Engine) send(ctx context.Context, out chan<- rag.StreamToken, tok rag.StreamToken) bool {
	select {
	case out <- tok:
		return true
	case <-ctx.Done():
		return false
	}
}

// sendError delivers a terminal error token, logging it as well since stream
// consumers sometimes drop the tail on disconnect.
func (e *Engine) sendError(ctx context.Context, out chan<- rag.StreamToken, err error) {
	logging.FromContext(ctx).Error("engine: ask failed", slog.Any("error", err))
	e.send(ctx, out, rag.StreamToken{Type: rag.TokenError, Err: err.Error()})
}
