package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/54b3r/docqa-go/internal/rag"
)

// fakePersistence is an in-memory Persistence used to observe write-through
// behaviour without a database.
type fakePersistence struct {
	mu    sync.Mutex
	blobs map[string][]byte
	// failSave forces the next SaveVectors call to fail.
	failSave bool
}

func newFakePersistence() *fakePersistence {
	return &fakePersistence{blobs: make(map[string][]byte)}
}

func (f *fakePersistence) SaveVectors(_ context.Context, blobs map[string][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return errors.New("disk full")
	}
	for id, b := range blobs {
		f.blobs[id] = b
	}
	return nil
}

func (f *fakePersistence) DeleteVectors(_ context.Context, chunkIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range chunkIDs {
		delete(f.blobs, id)
	}
	return nil
}

func (f *fakePersistence) LoadVectors(_ context.Context) (map[string][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string][]byte, len(f.blobs))
	for id, b := range f.blobs {
		out[id] = b
	}
	return out, nil
}

func Test_Codec_RoundTrip(t *testing.T) {
	t.Parallel()
	cases := [][]float32{
		nil,
		{0},
		{1, -1, 0.5},
		{3.14159, -2.71828, 1e-38, 1e38},
	}
	for _, v := range cases {
		got, err := Deserialize(Serialize(v))
		if err != nil {
			t.Fatalf("round trip of %v: %v", v, err)
		}
		if len(got) != len(v) {
			t.Fatalf("round trip of %v: got %v", v, got)
		}
		for i := range v {
			if got[i] != v[i] {
				t.Errorf("element %d: want %v, got exactly %v", i, v[i], got[i])
			}
		}
	}
}

func Test_Codec_RejectsTornBlob(t *testing.T) {
	t.Parallel()
	_, err := Deserialize([]byte{1, 2, 3, 4, 5})
	if !errors.Is(err, rag.ErrValidation) {
		t.Fatalf("want ErrValidation for 5-byte blob, got %v", err)
	}
}

func Test_Store_PutGet(t *testing.T) {
	t.Parallel()
	s, err := New(context.Background(), 3, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := s.Put(context.Background(), "c1", []float32{1, 2, 3}); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, ok := s.Get("c1")
	if !ok || v[1] != 2 {
		t.Fatalf("get: want [1 2 3], got %v (ok=%v)", v, ok)
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("get of missing chunk reported ok")
	}
}

func Test_Store_RejectsDimensionMismatch(t *testing.T) {
	t.Parallel()
	s, err := New(context.Background(), 3, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	err = s.Put(context.Background(), "c1", []float32{1, 2})
	if !errors.Is(err, rag.ErrEmbedding) {
		t.Fatalf("want ErrEmbedding for short vector, got %v", err)
	}
	if s.Count() != 0 {
		t.Errorf("rejected vector was cached anyway: count=%d", s.Count())
	}
}

func Test_Store_WriteThroughAndReload(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	persist := newFakePersistence()

	s, err := New(ctx, 2, persist)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := s.PutBatch(ctx, map[string][]float32{
		"a": {1, 0},
		"b": {0, 1},
	}); err != nil {
		t.Fatalf("put batch: %v", err)
	}

	// A second store sharing the backend sees the vectors at construction.
	s2, err := New(ctx, 2, persist)
	if err != nil {
		t.Fatalf("second store: %v", err)
	}
	if s2.Count() != 2 {
		t.Fatalf("want 2 vectors after eager load, got %d", s2.Count())
	}
	v, ok := s2.Get("a")
	if !ok || v[0] != 1 {
		t.Errorf("loaded vector mismatch: %v (ok=%v)", v, ok)
	}
}

func Test_Store_PersistFailureLeavesCacheUntouched(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	persist := newFakePersistence()
	s, err := New(ctx, 2, persist)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	persist.failSave = true
	if err := s.Put(ctx, "a", []float32{1, 2}); err == nil {
		t.Fatal("want error when persistence fails")
	}
	if s.Count() != 0 {
		t.Errorf("failed write left %d cached vectors", s.Count())
	}
}

func Test_Store_ReloadRejectsWrongDimensionality(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	persist := newFakePersistence()
	persist.blobs["a"] = Serialize([]float32{1, 2, 3})

	_, err := New(ctx, 2, persist)
	if !errors.Is(err, rag.ErrInvariant) {
		t.Fatalf("want ErrInvariant for 3-dim blob in a 2-dim store, got %v", err)
	}
}

func Test_Store_EvictSkipsPersistence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	persist := newFakePersistence()
	s, err := New(ctx, 1, persist)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, id := range []string{"a", "b"} {
		if err := s.Put(ctx, id, []float32{1}); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}

	s.Evict([]string{"a"})

	if s.Count() != 1 {
		t.Errorf("want 1 cached vector after evict, got %d", s.Count())
	}
	// Evict drops cache entries only; the persisted rows are assumed gone
	// already (cascade delete), so the backend is not written to.
	if len(persist.blobs) != 2 {
		t.Errorf("evict touched persistence: %d blobs remain", len(persist.blobs))
	}
}

func Test_Store_RemoveBatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	persist := newFakePersistence()
	s, err := New(ctx, 1, persist)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Put(ctx, id, []float32{1}); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}

	if err := s.RemoveBatch(ctx, []string{"a", "c", "never-stored"}); err != nil {
		t.Fatalf("remove batch: %v", err)
	}
	if s.Count() != 1 {
		t.Fatalf("want 1 vector after removal, got %d", s.Count())
	}
	if len(persist.blobs) != 1 {
		t.Errorf("want 1 persisted blob after removal, got %d", len(persist.blobs))
	}
}

func Test_Store_GetAllIsASnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, err := New(ctx, 1, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := s.Put(ctx, "a", []float32{1}); err != nil {
		t.Fatalf("put: %v", err)
	}

	snap := s.GetAll()
	if err := s.Put(ctx, "b", []float32{2}); err != nil {
		t.Fatalf("put after snapshot: %v", err)
	}
	if len(snap) != 1 {
		t.Errorf("snapshot grew after a later write: %d entries", len(snap))
	}
}

func Test_Store_ConcurrentReadsAndWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, err := New(ctx, 4, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("c%d", i)
			_ = s.Put(ctx, id, []float32{1, 2, 3, 4})
		}()
		go func() {
			defer wg.Done()
			for range 100 {
				_ = s.GetAll()
				_ = s.Count()
			}
		}()
	}
	wg.Wait()

	if s.Count() != 8 {
		t.Errorf("want 8 vectors after concurrent writes, got %d", s.Count())
	}
	if s.MemoryBytes() != 8*4*4 {
		t.Errorf("memory estimate: want 128, got %d", s.MemoryBytes())
	}
}
