// Package server implements the HTTP server that exposes the docqa engine
// via a REST/SSE API. The server is started by the `docqa serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/54b3r/docqa-go/internal/logging"
	"github.com/54b3r/docqa-go/internal/rag"
)

// New constructs a Server from the provided engine and config.
func New(engine Answerer, cfg *Config) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("server: engine must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must be long enough for streaming responses.
		cfg.WriteTimeout = 5 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		engine:  engine,
		cfg:     cfg,
		log:     log,
		pingers: cfg.Pingers,
		metrics: newServerMetrics(reg),
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	s.stopRL = stopRL

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/ask", s.handleAsk)
	mux.HandleFunc("POST /api/ask/complete", s.handleAskComplete)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/documents", s.handleIngest)
	mux.HandleFunc("GET /api/documents", s.handleListDocuments)
	mux.HandleFunc("GET /api/documents/{id}", s.handleGetDocument)
	mux.HandleFunc("GET /api/documents/{id}/chunks", s.handleGetChunks)
	mux.HandleFunc("DELETE /api/documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// Middleware order (outermost first): request logging, metrics, rate
	// limiting, then auth. /metrics and health probes bypass auth.
	var handler http.Handler = mux
	handler = authMiddleware(cfg.APIKey, handler)
	handler = rl.middleware(handler)
	handler = s.instrument(handler)
	handler = requestLogger(log, handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		fmt.Printf("docqa server listening on http://%s\n", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// Handler returns the server's root handler. Used by tests with httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// handleAsk handles POST /api/ask. It streams the answer using Server-Sent
// Events: each stream token is one SSE frame whose event field carries the
// token type and whose data field carries the token JSON.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	// Set SSE headers so the client receives a streaming response.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	start := time.Now()
	s.metrics.askActiveStreams.Inc()
	defer s.metrics.askActiveStreams.Dec()

	outcome := "ok"
	for tok := range s.engine.Ask(r.Context(), req.Query, rag.SearchOptions{TopK: req.TopK}) {
		data, err := json.Marshal(tok)
		if err != nil {
			outcome = "error"
			break
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", tok.Type, data)
		flusher.Flush()
		if tok.Type == rag.TokenError {
			outcome = "error"
		}
	}
	if r.Context().Err() != nil {
		outcome = "cancelled"
	}

	fmt.Fprintf(w, "event: done\ndata: [DONE]\n\n")
	flusher.Flush()

	s.metrics.askRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.askDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

// handleAskComplete handles POST /api/ask/complete: the blocking variant
// returning the full answer with citations as one JSON document.
func (s *Server) handleAskComplete(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	answer, err := s.engine.AskComplete(r.Context(), req.Query, rag.SearchOptions{TopK: req.TopK})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, answer)
}

// handleSearch handles GET /api/search?q=... without generation. Optional
// topK and minScore parameters override the configured retrieval settings
// for this request.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := params.Get("q")
	if query == "" {
		http.Error(w, "q parameter is required", http.StatusBadRequest)
		return
	}

	var opts rag.SearchOptions
	if v := params.Get("topK"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "topK must be a positive integer", http.StatusBadRequest)
			return
		}
		opts.TopK = n
	}
	if v := params.Get("minScore"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "minScore must be a number", http.StatusBadRequest)
			return
		}
		opts.MinScore = f
	}

	results, err := s.engine.Search(r.Context(), query, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, searchResponse{Query: query, Results: results})
}

// handleIngest handles POST /api/documents.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	doc, err := s.engine.Ingest(r.Context(), req.Title, req.Content, req.Source)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	chunks, err := s.engine.Chunks(r.Context(), doc.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.documentsIngestedTotal.Inc()
	s.metrics.chunksIngestedTotal.Add(float64(len(chunks)))

	s.writeJSON(w, r, http.StatusCreated, ingestResponse{
		ID:     doc.ID,
		Title:  doc.Title,
		Chunks: len(chunks),
	})
}

// handleListDocuments handles GET /api/documents.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.engine.Documents(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	summaries := make([]documentSummary, 0, len(docs))
	for _, d := range docs {
		summaries = append(summaries, documentSummary{
			ID:        d.ID,
			Title:     d.Title,
			Source:    d.Source,
			CreatedAt: d.CreatedAt,
		})
	}
	s.writeJSON(w, r, http.StatusOK, summaries)
}

// handleGetDocument handles GET /api/documents/{id}.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.engine.Document(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, doc)
}

// handleGetChunks handles GET /api/documents/{id}/chunks.
func (s *Server) handleGetChunks(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	// 404 for unknown documents rather than an empty chunk list.
	if _, err := s.engine.Document(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	chunks, err := s.engine.Chunks(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, chunks)
}

// handleDeleteDocument handles DELETE /api/documents/{id}.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteDocument(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStats handles GET /api/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, stats)
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// writeJSON writes v as a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("server: response encode error", "error", err)
	}
}

// writeError maps engine error classes to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, rag.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, rag.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, rag.ErrEmbedding), errors.Is(err, rag.ErrGeneration):
		status = http.StatusBadGateway
	}
	logging.FromContext(r.Context()).Error("server: request failed", "status", status, "error", err)
	http.Error(w, err.Error(), status)
}
