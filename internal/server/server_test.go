package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/54b3r/docqa-go/internal/rag"
)

// fakeEngine implements Answerer with canned data for handler tests. It
// records the search options it receives so tests can assert per-call
// overrides survive the HTTP layer.
type fakeEngine struct {
	answer    *rag.Answer
	results   []rag.SearchResult
	docs      []rag.Document
	chunks    []rag.Chunk
	stats     *rag.Stats
	err       error
	streamErr string
	gotOpts   []rag.SearchOptions
}

func (f *fakeEngine) Ask(ctx context.Context, _ string, opts ...rag.SearchOptions) <-chan rag.StreamToken {
	f.gotOpts = opts
	out := make(chan rag.StreamToken, 8)
	go func() {
		defer close(out)
		if f.streamErr != "" {
			out <- rag.StreamToken{Type: rag.TokenError, Err: f.streamErr}
			return
		}
		out <- rag.StreamToken{Type: rag.TokenContent, Content: "hello "}
		out <- rag.StreamToken{Type: rag.TokenContent, Content: "world"}
		out <- rag.StreamToken{Type: rag.TokenCitations, Citations: f.answer.Citations}
		out <- rag.StreamToken{Type: rag.TokenMetadata, Metadata: &rag.StreamMetadata{
			TokensGenerated: 2, GenerationTime: time.Millisecond, CitationsUsed: len(f.answer.Citations),
		}}
	}()
	return out
}

func (f *fakeEngine) AskComplete(_ context.Context, _ string, opts ...rag.SearchOptions) (*rag.Answer, error) {
	f.gotOpts = opts
	return f.answer, f.err
}

func (f *fakeEngine) Search(_ context.Context, _ string, opts ...rag.SearchOptions) ([]rag.SearchResult, error) {
	f.gotOpts = opts
	return f.results, f.err
}

func (f *fakeEngine) Ingest(_ context.Context, title, _, _ string) (*rag.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	if title == "" {
		return nil, fmt.Errorf("empty title: %w", rag.ErrValidation)
	}
	return &rag.Document{ID: "doc-new", Title: title}, nil
}

func (f *fakeEngine) Documents(context.Context) ([]rag.Document, error) {
	return f.docs, f.err
}

func (f *fakeEngine) Document(_ context.Context, id string) (*rag.Document, error) {
	for i := range f.docs {
		if f.docs[i].ID == id {
			return &f.docs[i], nil
		}
	}
	return nil, fmt.Errorf("document %s: %w", id, rag.ErrNotFound)
}

func (f *fakeEngine) Chunks(context.Context, string) ([]rag.Chunk, error) {
	return f.chunks, nil
}

func (f *fakeEngine) DeleteDocument(_ context.Context, id string) error {
	if _, err := f.Document(context.Background(), id); err != nil {
		return err
	}
	return nil
}

func (f *fakeEngine) Stats(context.Context) (*rag.Stats, error) {
	return f.stats, f.err
}

// newTestServer builds a Server around eng with auth disabled.
func newTestServer(t *testing.T, eng *fakeEngine) *Server {
	t.Helper()
	if eng.answer == nil {
		eng.answer = &rag.Answer{
			ID:   "ans-1",
			Text: "hello world",
			Citations: []rag.Citation{
				{ID: "cit-1", Number: 1, ChunkID: "chunk-1", DocumentID: "doc-1", Snippet: "snip"},
			},
		}
	}
	if eng.stats == nil {
		eng.stats = &rag.Stats{Documents: 1, Chunks: 2, Vectors: 2, Dimensions: 8}
	}
	s, err := New(eng, &Config{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	t.Cleanup(s.stopRL)
	return s
}

func Test_HandleAsk_SSEStream(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeEngine{})

	req := httptest.NewRequest(http.MethodPost, "/api/ask",
		strings.NewReader(`{"query":"what is up"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	body := rec.Body.String()
	contentIdx := strings.Index(body, "event: content")
	citationsIdx := strings.Index(body, "event: citations")
	metadataIdx := strings.Index(body, "event: metadata")
	doneIdx := strings.Index(body, "event: done")
	if contentIdx == -1 || citationsIdx == -1 || metadataIdx == -1 || doneIdx == -1 {
		t.Fatalf("missing SSE frames in body:\n%s", body)
	}
	if !(contentIdx < citationsIdx && citationsIdx < metadataIdx && metadataIdx < doneIdx) {
		t.Errorf("SSE frames out of order:\n%s", body)
	}
	if !strings.Contains(body, `"content":"hello "`) {
		t.Errorf("content frame missing token JSON:\n%s", body)
	}
}

func Test_HandleAsk_ErrorToken(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeEngine{streamErr: "generation failed"})

	req := httptest.NewRequest(http.MethodPost, "/api/ask",
		strings.NewReader(`{"query":"boom"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "event: error") {
		t.Errorf("missing error frame:\n%s", body)
	}
	if !strings.Contains(body, "event: done") {
		t.Errorf("stream did not terminate with done frame:\n%s", body)
	}
}

func Test_HandleAsk_MissingQuery(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeEngine{})

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func Test_HandleAskComplete(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeEngine{})

	req := httptest.NewRequest(http.MethodPost, "/api/ask/complete",
		strings.NewReader(`{"query":"what is up"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var answer rag.Answer
	if err := json.Unmarshal(rec.Body.Bytes(), &answer); err != nil {
		t.Fatalf("decode answer: %v", err)
	}
	if answer.Text != "hello world" || len(answer.Citations) != 1 {
		t.Errorf("answer = %+v", answer)
	}
}

func Test_HandleSearch(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeEngine{
		results: []rag.SearchResult{
			{Chunk: rag.Chunk{ID: "chunk-1", Content: "found it"}, Score: 0.9, Rank: 1},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=found", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp searchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Query != "found" || len(resp.Results) != 1 {
		t.Errorf("response = %+v", resp)
	}
}

func Test_HandleSearch_PerCallOverrides(t *testing.T) {
	t.Parallel()
	eng := &fakeEngine{}
	s := newTestServer(t, eng)

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=found&topK=2&minScore=0.35", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(eng.gotOpts) != 1 {
		t.Fatalf("engine received %d option sets, want 1", len(eng.gotOpts))
	}
	if got := eng.gotOpts[0]; got.TopK != 2 || got.MinScore != 0.35 {
		t.Errorf("engine received options %+v, want TopK=2 MinScore=0.35", got)
	}
}

func Test_HandleSearch_InvalidTopK(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeEngine{})

	for _, v := range []string{"zero", "0", "-1"} {
		req := httptest.NewRequest(http.MethodGet, "/api/search?q=x&topK="+v, nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("topK=%s: status = %d, want 400", v, rec.Code)
		}
	}
}

func Test_HandleAskComplete_PerCallTopK(t *testing.T) {
	t.Parallel()
	eng := &fakeEngine{}
	s := newTestServer(t, eng)

	req := httptest.NewRequest(http.MethodPost, "/api/ask/complete",
		strings.NewReader(`{"query":"what is up","topK":3}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(eng.gotOpts) != 1 || eng.gotOpts[0].TopK != 3 {
		t.Errorf("engine received options %+v, want one set with TopK=3", eng.gotOpts)
	}
}

func Test_HandleSearch_MissingParam(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func Test_HandleIngest(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeEngine{
		chunks: []rag.Chunk{{ID: "c1"}, {ID: "c2"}},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/documents",
		strings.NewReader(`{"title":"t","content":"some content"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp ingestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "doc-new" || resp.Chunks != 2 {
		t.Errorf("response = %+v", resp)
	}
}

func Test_HandleIngest_ValidationError(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeEngine{})

	req := httptest.NewRequest(http.MethodPost, "/api/documents",
		strings.NewReader(`{"title":"","content":"some content"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func Test_HandleGetDocument_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/documents/nope", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func Test_HandleDeleteDocument(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeEngine{
		docs: []rag.Document{{ID: "doc-1", Title: "t"}},
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/doc-1", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204: %s", rec.Code, rec.Body.String())
	}
}

func Test_HandleStats(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats rag.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Documents != 1 || stats.Chunks != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func Test_WriteError_StatusMapping(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("x: %w", rag.ErrNotFound), http.StatusNotFound},
		{"validation", fmt.Errorf("x: %w", rag.ErrValidation), http.StatusBadRequest},
		{"embedding", fmt.Errorf("x: %w", rag.ErrEmbedding), http.StatusBadGateway},
		{"generation", fmt.Errorf("x: %w", rag.ErrGeneration), http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	s := newTestServer(t, &fakeEngine{})
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			s.writeError(rec, req, tt.err)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func Test_HandleHealth(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func Test_Metrics_Endpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeEngine{})

	// Drive one request through so the http counters are non-empty.
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	s.Handler().ServeHTTP(httptest.NewRecorder(), req)

	mreq := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, mreq)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "docqa_http_requests_total") {
		t.Errorf("metrics output missing docqa_http_requests_total:\n%.500s", rec.Body.String())
	}
}
