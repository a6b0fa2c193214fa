package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/54b3r/docqa-go/internal/embedder"
	"github.com/54b3r/docqa-go/internal/engine"
	"github.com/54b3r/docqa-go/internal/generator"
	"github.com/54b3r/docqa-go/internal/prompt"
	"github.com/54b3r/docqa-go/internal/provider"
	"github.com/54b3r/docqa-go/internal/rag"
	"github.com/54b3r/docqa-go/internal/search"
	"github.com/54b3r/docqa-go/internal/store"
	"github.com/54b3r/docqa-go/internal/textproc"
	"github.com/54b3r/docqa-go/internal/vectorstore"
)

// appStack bundles the engine with the components the serve command needs
// direct access to (readiness pingers, shutdown).
type appStack struct {
	// engine is the fully wired question-answering pipeline.
	engine *engine.Engine
	// store is the SQLite corpus store backing the engine.
	store *store.SQLiteStore
	// embedder is the embedding backend, exposed for readiness probes.
	embedder rag.Embedder
	// close releases the stack's resources. Always non-nil.
	close func()
}

// buildStack wires the full engine: SQLite store, vector cache, embedder,
// and — when withModel is true — the chat model generator. Commands that
// never generate (ingest, search, docs, stats) skip provider initialisation
// so they work without model credentials.
func buildStack(ctx context.Context, log *slog.Logger, withModel bool) (*appStack, error) {
	dbPath := os.Getenv("DOCQA_DB_PATH")
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open corpus store at %s: %w", dbPath, err)
	}
	log.Info("corpus store opened", slog.String("path", dbPath))

	if err := embedder.Validate(log); err != nil {
		_ = st.Close()
		return nil, err
	}
	emb, err := embedder.NewFromEnv()
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("initialise embedder: %w", err)
	}
	log.Info("embedder initialised",
		slog.String("backend", embedder.ResolveBackend()),
		slog.Int("dimensions", emb.Dimensions()),
	)

	vectors, err := vectorstore.New(ctx, emb.Dimensions(), st)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("load vector store: %w", err)
	}
	log.Info("vector store loaded", slog.Int("vectors", vectors.Count()))

	var gen rag.Generator
	if withModel {
		chatModel, err := provider.NewFromEnv(ctx)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("initialise model provider: %w", err)
		}
		gen = generator.NewChatModelGenerator(chatModel)
		log.Info("model provider initialised", slog.String("provider", os.Getenv("MODEL_PROVIDER")))
	}

	eng := engine.New(st, vectors, emb, gen, engineOptions())

	return &appStack{
		engine:   eng,
		store:    st,
		embedder: emb,
		close:    func() { _ = st.Close() },
	}, nil
}

// engineOptions reads the tuning knobs from the environment. Unset or
// invalid values fall back to each component's defaults.
func engineOptions() engine.Options {
	return engine.Options{
		Chunking: textproc.ChunkConfig{
			ChunkSize:    getEnvInt("CHUNK_SIZE", 0),
			MinChunkSize: getEnvInt("CHUNK_MIN_SIZE", 0),
		},
		Search: search.Config{
			TopK:     getEnvInt("SEARCH_TOP_K", 0),
			MinScore: getEnvFloat("SEARCH_MIN_SCORE", 0),
		},
		Prompt: prompt.Config{
			MaxContextTokens: getEnvInt("PROMPT_MAX_CONTEXT_TOKENS", 0),
			MaxContextChunks: getEnvInt("PROMPT_MAX_CONTEXT_CHUNKS", 0),
			SnippetMaxChars:  getEnvInt("PROMPT_SNIPPET_MAX_CHARS", 0),
		},
	}
}

// getEnvOrDefault returns the env var value or fallback if unset/empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the env var parsed as int, or fallback if unset or
// unparseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvFloat returns the env var parsed as float64, or fallback if unset
// or unparseable.
func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
