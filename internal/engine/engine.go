// Package engine orchestrates the full question-answering pipeline: document
// ingestion (normalize → chunk → persist → embed) and query answering
// (embed → rank → prompt → generate), in both streaming and blocking forms.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/54b3r/docqa-go/internal/logging"
	"github.com/54b3r/docqa-go/internal/prompt"
	"github.com/54b3r/docqa-go/internal/rag"
	"github.com/54b3r/docqa-go/internal/search"
	"github.com/54b3r/docqa-go/internal/textproc"
	"github.com/54b3r/docqa-go/internal/vectorstore"
)

// CorpusStore is the subset of the SQLite store the engine depends on.
// *store.SQLiteStore satisfies it.
type CorpusStore interface {
	InsertDocument(ctx context.Context, doc *rag.Document) error
	GetDocument(ctx context.Context, id string) (*rag.Document, error)
	ListDocuments(ctx context.Context) ([]rag.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	InsertChunks(ctx context.Context, chunks []rag.Chunk) error
	FetchChunks(ctx context.Context, documentID string) ([]rag.Chunk, error)
	AllChunks(ctx context.Context) ([]rag.Chunk, error)
	CountDocuments(ctx context.Context) (int, error)
	CountChunks(ctx context.Context) (int, error)
}

// Options bundles the tunable knobs for a new Engine. Zero values fall back
// to each component's own defaults.
type Options struct {
	// Chunking controls the token-window chunker.
	Chunking textproc.ChunkConfig
	// Search controls result selection.
	Search search.Config
	// Prompt controls prompt assembly and citation snippets.
	Prompt prompt.Config
}

// Engine wires the store, vector cache, embedder, and generator into the
// question-answering pipeline. It is safe for concurrent use.
type Engine struct {
	store     CorpusStore
	vectors   *vectorstore.Store
	embedder  rag.Embedder
	generator rag.Generator
	builder   *prompt.Builder
	opts      Options
}

// New constructs an Engine from its four collaborators.
func New(store CorpusStore, vectors *vectorstore.Store, emb rag.Embedder, gen rag.Generator, opts Options) *Engine {
	return &Engine{
		store:     store,
		vectors:   vectors,
		embedder:  emb,
		generator: gen,
		builder:   prompt.NewBuilder(opts.Prompt),
		opts:      opts,
	}
}

// Ingest normalizes, chunks, persists, and embeds a document. The document
// and its chunks are durable before any embedding work starts; an embedding
// failure leaves a partially ingested document whose chunks can be embedded
// later via ReEmbed, and is reported to the caller as a warning, not an
// error. Empty (post-normalization) content is not an error: the document
// record is persisted with zero chunks.
func (e *Engine) Ingest(ctx context.Context, title, content, source string) (*rag.Document, error) {
	log := logging.FromContext(ctx)

	if title == "" {
		return nil, fmt.Errorf("engine: ingest: empty title: %w", rag.ErrValidation)
	}

	normalized := textproc.Normalize(content)

	now := time.Now()
	doc := &rag.Document{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   normalized,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.InsertDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("engine: ingest %q: %w", title, err)
	}

	pieces := textproc.Chunk(normalized, e.opts.Chunking)
	chunks := make([]rag.Chunk, 0, len(pieces))
	for _, p := range pieces {
		chunks = append(chunks, rag.Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Content:    p.Content,
			TokenCount: p.TokenCount,
			Index:      p.Index,
			CreatedAt:  now,
		})
	}
	if err := e.store.InsertChunks(ctx, chunks); err != nil {
		// Roll the document back so a failed ingest leaves no orphan.
		if delErr := e.store.DeleteDocument(ctx, doc.ID); delErr != nil {
			log.Error("engine: rollback after chunk insert failure also failed",
				slog.String("document_id", doc.ID), slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("engine: ingest %q: %w", title, err)
	}

	if err := e.embedChunks(ctx, chunks); err != nil {
		log.Warn("engine: embedding failed, document ingested without vectors",
			slog.String("document_id", doc.ID),
			slog.Int("chunks", len(chunks)),
			slog.Any("error", err))
		return doc, nil
	}

	log.Info("engine: document ingested",
		slog.String("document_id", doc.ID),
		slog.String("title", title),
		slog.Int("chunks", len(chunks)))
	return doc, nil
}

// embedChunks embeds a chunk batch and writes the vectors through the cache.
func (e *Engine) embedChunks(ctx context.Context, chunks []rag.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
		ids[i] = c.ID
	}
	vecs, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("engine: embed chunks: %w: %w", rag.ErrEmbedding, err)
	}
	if len(vecs) != len(chunks) {
		return fmt.Errorf("engine: embed chunks: got %d vectors for %d chunks: %w",
			len(vecs), len(chunks), rag.ErrEmbedding)
	}
	vectors := make(map[string][]float32, len(chunks))
	for i, id := range ids {
		vectors[id] = vecs[i]
	}
	if err := e.vectors.PutBatch(ctx, vectors); err != nil {
		return fmt.Errorf("engine: store vectors: %w", err)
	}
	return nil
}

// ReEmbed embeds every chunk that has no vector yet. It returns the number
// of chunks embedded. Use after an ingest whose embedding step failed, or
// after switching embedding models (clear the vectors first).
func (e *Engine) ReEmbed(ctx context.Context) (int, error) {
	chunks, err := e.store.AllChunks(ctx)
	if err != nil {
		return 0, fmt.Errorf("engine: reembed: %w", err)
	}
	var missing []rag.Chunk
	for _, c := range chunks {
		if _, ok := e.vectors.Get(c.ID); !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}
	if err := e.embedChunks(ctx, missing); err != nil {
		return 0, err
	}
	return len(missing), nil
}

// searchConfig merges per-call overrides onto the configured search
// settings. Later options win field by field.
func (e *Engine) searchConfig(opts []rag.SearchOptions) search.Config {
	cfg := e.opts.Search
	for _, o := range opts {
		if o.TopK > 0 {
			cfg.TopK = o.TopK
		}
		if o.MinScore != 0 {
			cfg.MinScore = o.MinScore
		}
	}
	return cfg
}

// Search embeds the query and ranks every embedded chunk against it.
// An empty corpus returns an empty result list, not an error. Per-call
// opts override the configured top-K and minimum score.
func (e *Engine) Search(ctx context.Context, query string, opts ...rag.SearchOptions) ([]rag.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("engine: search: empty query: %w", rag.ErrValidation)
	}

	chunks, err := e.store.AllChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: search: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("engine: embed query: %w: %w", rag.ErrEmbedding, err)
	}

	return search.Rank(queryVec, chunks, e.vectors.GetAll(), e.searchConfig(opts)), nil
}

// Documents lists every document, newest first.
func (e *Engine) Documents(ctx context.Context) ([]rag.Document, error) {
	return e.store.ListDocuments(ctx)
}

// Document returns a single document by ID.
func (e *Engine) Document(ctx context.Context, id string) (*rag.Document, error) {
	return e.store.GetDocument(ctx, id)
}

// Chunks returns a document's chunks in document order.
func (e *Engine) Chunks(ctx context.Context, documentID string) ([]rag.Chunk, error) {
	return e.store.FetchChunks(ctx, documentID)
}

// DeleteDocument removes a document, its chunks, and their cached vectors.
func (e *Engine) DeleteDocument(ctx context.Context, id string) error {
	chunks, err := e.store.FetchChunks(ctx, id)
	if err != nil {
		return fmt.Errorf("engine: delete document %s: %w", id, err)
	}
	if err := e.store.DeleteDocument(ctx, id); err != nil {
		return err
	}
	// The embeddings rows are gone via cascade; evict the cache entries.
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	e.vectors.Evict(ids)
	return nil
}

// Stats reports corpus and vector cache sizes.
func (e *Engine) Stats(ctx context.Context) (*rag.Stats, error) {
	docs, err := e.store.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: stats: %w", err)
	}
	chunks, err := e.store.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: stats: %w", err)
	}
	return &rag.Stats{
		Documents:         docs,
		Chunks:            chunks,
		Vectors:           e.vectors.Count(),
		VectorMemoryBytes: e.vectors.MemoryBytes(),
		Dimensions:        e.vectors.Dimensions(),
	}, nil
}
