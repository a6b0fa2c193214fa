package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/docqa-go/internal/rag"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// Registry is the Prometheus registry for server metrics. If nil, a new
	// registry is created (keeps unit tests hermetic).
	Registry *prometheus.Registry
}

// Answerer is the interface the HTTP handlers call into. *engine.Engine
// satisfies it; tests inject a fake.
type Answerer interface {
	// Ask answers a query as a token stream. See engine.Engine.Ask.
	Ask(ctx context.Context, query string, opts ...rag.SearchOptions) <-chan rag.StreamToken
	// AskComplete answers a query in one blocking call.
	AskComplete(ctx context.Context, query string, opts ...rag.SearchOptions) (*rag.Answer, error)
	// Search returns ranked chunks for a query.
	Search(ctx context.Context, query string, opts ...rag.SearchOptions) ([]rag.SearchResult, error)
	// Ingest adds a document to the corpus.
	Ingest(ctx context.Context, title, content, source string) (*rag.Document, error)
	// Documents lists every document, newest first.
	Documents(ctx context.Context) ([]rag.Document, error)
	// Document returns a single document by ID.
	Document(ctx context.Context, id string) (*rag.Document, error)
	// Chunks returns a document's chunks in document order.
	Chunks(ctx context.Context, documentID string) ([]rag.Chunk, error)
	// DeleteDocument removes a document, its chunks, and their vectors.
	DeleteDocument(ctx context.Context, id string) error
	// Stats reports corpus and vector cache sizes.
	Stats(ctx context.Context) (*rag.Stats, error)
}

// Server is the HTTP server exposing the question-answering engine.
type Server struct {
	// engine handles all corpus and query operations.
	engine Answerer
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// askRequest is the JSON body for POST /api/ask and POST /api/ask/complete.
type askRequest struct {
	// Query is the user's natural language question.
	Query string `json:"query"`
	// TopK caps the number of chunks retrieved for this question. Zero or
	// absent means the server's configured default.
	TopK int `json:"topK,omitempty"`
}

// ingestRequest is the JSON body for POST /api/documents.
type ingestRequest struct {
	// Title is the human-readable document title.
	Title string `json:"title"`
	// Content is the raw document text.
	Content string `json:"content"`
	// Source is an optional provenance label (file path, URL).
	Source string `json:"source,omitempty"`
}

// ingestResponse is the JSON response for POST /api/documents.
type ingestResponse struct {
	// ID is the assigned document ID.
	ID string `json:"id"`
	// Title echoes the ingested title.
	Title string `json:"title"`
	// Chunks is the number of chunks derived from the document.
	Chunks int `json:"chunks"`
}

// searchResponse is the JSON response for GET /api/search.
type searchResponse struct {
	// Query echoes the search query.
	Query string `json:"query"`
	// Results is the ranked result list, best first.
	Results []rag.SearchResult `json:"results"`
}

// documentSummary is one entry in the GET /api/documents listing. Content is
// omitted to keep the listing small.
type documentSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
