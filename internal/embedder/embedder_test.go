package embedder

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func Test_MockEmbedder_Deterministic(t *testing.T) {
	t.Parallel()
	e := NewMockEmbedder(16)
	ctx := context.Background()

	a, err := e.Embed(ctx, "hello world")
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	b, err := e.Embed(ctx, "hello world")
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	if len(a) != 16 {
		t.Fatalf("vector length = %d, want 16", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same text embedded differently at index %d", i)
		}
	}

	c, _ := e.Embed(ctx, "a different text")
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Errorf("distinct texts produced identical vectors")
	}
}

func Test_MockEmbedder_UnitNorm(t *testing.T) {
	t.Parallel()
	e := NewMockEmbedder(32)
	vec, err := e.Embed(context.Background(), "normalize me")
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-4 {
		t.Errorf("vector norm = %v, want ~1.0", math.Sqrt(norm))
	}
}

func Test_MockEmbedder_BatchParallelToInput(t *testing.T) {
	t.Parallel()
	e := NewMockEmbedder(8)
	texts := []string{"one", "two", "three"}

	vecs, err := e.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch error: %v", err)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("EmbedBatch returned %d vectors, want %d", len(vecs), len(texts))
	}
	single, _ := e.Embed(context.Background(), "two")
	for i := range single {
		if vecs[1][i] != single[i] {
			t.Fatalf("batch embedding differs from single embedding at index %d", i)
		}
	}
}

func Test_OllamaEmbedder_BatchRequest(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("path = %s, want /api/embed", r.URL.Path)
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" {
			t.Errorf("model = %s", req.Model)
		}
		resp := ollamaEmbedResponse{Embeddings: make([][]float32, len(req.Input))}
		for i := range resp.Embeddings {
			resp.Embeddings[i] = []float32{float32(i), 1}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL, Model: "nomic-embed-text", Dimensions: 2})
	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedBatch error: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vecs))
	}
	if vecs[2][0] != 2 {
		t.Errorf("vectors not parallel to input: %v", vecs)
	}
}

func Test_OllamaEmbedder_ServerError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Error: "model not found"})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL, Model: "missing"})
	if _, err := e.EmbedBatch(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected error from 500 response")
	}
}

func Test_OpenAIEmbedder_ReordersByIndex(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		// Return embeddings out of order; the client must sort by index.
		_, _ = w.Write([]byte(`{"data":[
			{"embedding":[2,0],"index":1},
			{"embedding":[1,0],"index":0}
		]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "text-embedding-3-small", Dimensions: 2})
	vecs, err := e.EmbedBatch(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("EmbedBatch error: %v", err)
	}
	if vecs[0][0] != 1 || vecs[1][0] != 2 {
		t.Errorf("embeddings not reordered by index: %v", vecs)
	}
}

func Test_NewFromEnv_MockBackend(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "mock")

	e, err := NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv error: %v", err)
	}
	if e.Dimensions() != defaultOllamaDimensions {
		t.Errorf("Dimensions = %d, want %d", e.Dimensions(), defaultOllamaDimensions)
	}
}

func Test_NewFromEnv_OpenAIRequiresKey(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("EMBEDDING_API_KEY", "")

	if _, err := NewFromEnv(); err == nil {
		t.Fatal("expected error for openai backend with no API key")
	}
}

func Test_NewFromEnv_UnknownBackend(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "carrier-pigeon")

	if _, err := NewFromEnv(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func Test_DefaultDimensions_EnvOverride(t *testing.T) {
	t.Setenv("EMBEDDING_DIMENSIONS", "512")

	if got := DefaultDimensions("ollama"); got != 512 {
		t.Errorf("DefaultDimensions = %d, want 512", got)
	}
}

func Test_LooksLikeChatModel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		model string
		want  bool
	}{
		{"gpt-4o", true},
		{"llama3.2", true},
		{"nomic-embed-text", false},
		{"text-embedding-3-small", false},
	}
	for _, tt := range tests {
		if got := looksLikeChatModel(tt.model); got != tt.want {
			t.Errorf("looksLikeChatModel(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}
