package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/54b3r/docqa-go/internal/rag"
)

// Persistence is the durable backend for the vector cache. The SQLite store
// satisfies it; tests inject an in-memory fake. Batch operations must be
// atomic — either every vector in the batch is applied or none is.
type Persistence interface {
	// SaveVectors persists the given chunkID → blob entries atomically.
	SaveVectors(ctx context.Context, blobs map[string][]byte) error

	// DeleteVectors removes the given chunk IDs atomically. Missing IDs
	// are not an error.
	DeleteVectors(ctx context.Context, chunkIDs []string) error

	// LoadVectors returns every persisted chunkID → blob entry.
	LoadVectors(ctx context.Context) (map[string][]byte, error)
}

// Store is the keyed vector cache with optional write-through persistence.
// Reads may overlap; writes are exclusive. All methods are safe for
// concurrent use.
type Store struct {
	// mu guards cache. RWMutex preserves the single-writer, overlapping
	// readers contract.
	mu sync.RWMutex

	// cache maps chunk ID to its embedding. Vectors are never mutated in
	// place — writes replace whole entries — so snapshots may share the
	// backing arrays without risking torn reads.
	cache map[string][]float32

	// dims is the process-wide embedding dimensionality. Every stored
	// vector must have exactly this length.
	dims int

	// persist is the durable backend, or nil for a cache-only store.
	persist Persistence
}

// New constructs a Store for vectors of the given dimensionality. If persist
// is non-nil the cache is eagerly populated from it — the corpus is assumed
// to fit in memory.
func New(ctx context.Context, dims int, persist Persistence) (*Store, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("vectorstore: %w: dimensionality must be positive, got %d", rag.ErrValidation, dims)
	}
	s := &Store{
		cache:   make(map[string][]float32),
		dims:    dims,
		persist: persist,
	}
	if persist != nil {
		if err := s.Reload(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Reload re-synchronizes the cache from the persisted store, replacing the
// current cache contents entirely. No-op for a cache-only store.
func (s *Store) Reload(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}

	blobs, err := s.persist.LoadVectors(ctx)
	if err != nil {
		return fmt.Errorf("vectorstore: reload: %w", err)
	}

	fresh := make(map[string][]float32, len(blobs))
	for id, blob := range blobs {
		v, err := Deserialize(blob)
		if err != nil {
			return fmt.Errorf("vectorstore: reload chunk %s: %w", id, err)
		}
		// A blob that decodes cleanly but to the wrong length means the
		// persisted state no longer matches the store's contract.
		if len(v) != s.dims {
			return fmt.Errorf("vectorstore: %w: chunk %s has %d dimensions, store expects %d", rag.ErrInvariant, id, len(v), s.dims)
		}
		fresh[id] = v
	}

	s.mu.Lock()
	s.cache = fresh
	s.mu.Unlock()
	return nil
}

// Put stores a single vector. See PutBatch for semantics.
func (s *Store) Put(ctx context.Context, chunkID string, vector []float32) error {
	return s.PutBatch(ctx, map[string][]float32{chunkID: vector})
}

// PutBatch stores a set of vectors. When persistence is enabled the batch is
// durably written before the cache is updated — a caller that observes
// success may assume the vectors survive a restart. A dimensionality
// mismatch rejects the whole batch.
func (s *Store) PutBatch(ctx context.Context, vectors map[string][]float32) error {
	for id, v := range vectors {
		if len(v) != s.dims {
			return fmt.Errorf("vectorstore: %w: chunk %s vector has %d dimensions, store expects %d", rag.ErrEmbedding, id, len(v), s.dims)
		}
	}

	if s.persist != nil {
		blobs := make(map[string][]byte, len(vectors))
		for id, v := range vectors {
			blobs[id] = Serialize(v)
		}
		if err := s.persist.SaveVectors(ctx, blobs); err != nil {
			return fmt.Errorf("vectorstore: persist batch of %d: %w", len(vectors), err)
		}
	}

	s.mu.Lock()
	for id, v := range vectors {
		s.cache[id] = v
	}
	s.mu.Unlock()
	return nil
}

// Get returns the vector for the given chunk ID, or false if none is stored.
func (s *Store) Get(chunkID string) ([]float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.cache[chunkID]
	return v, ok
}

// GetAll returns a point-in-time snapshot of the full cache. The returned
// map is owned by the caller; concurrent writes to the store are never
// visible through it.
func (s *Store) GetAll() map[string][]float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[string][]float32, len(s.cache))
	for id, v := range s.cache {
		snapshot[id] = v
	}
	return snapshot
}

// Remove deletes a single vector. See RemoveBatch for semantics.
func (s *Store) Remove(ctx context.Context, chunkID string) error {
	return s.RemoveBatch(ctx, []string{chunkID})
}

// RemoveBatch deletes vectors from the cache and the persisted store
// together. IDs without a stored vector are ignored.
func (s *Store) RemoveBatch(ctx context.Context, chunkIDs []string) error {
	if s.persist != nil {
		if err := s.persist.DeleteVectors(ctx, chunkIDs); err != nil {
			return fmt.Errorf("vectorstore: delete batch of %d: %w", len(chunkIDs), err)
		}
	}

	s.mu.Lock()
	for _, id := range chunkIDs {
		delete(s.cache, id)
	}
	s.mu.Unlock()
	return nil
}

// Evict drops cache entries without touching the persisted store. Use when
// the backing rows are already gone, e.g. after a cascading document delete.
func (s *Store) Evict(chunkIDs []string) {
	s.mu.Lock()
	for _, id := range chunkIDs {
		delete(s.cache, id)
	}
	s.mu.Unlock()
}

// Count returns the number of cached vectors.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// Dimensions returns the fixed vector length this store was built for.
func (s *Store) Dimensions() int {
	return s.dims
}

// MemoryBytes estimates the cache footprint as count × dims × 4 bytes.
func (s *Store) MemoryBytes() int64 {
	return int64(s.Count()) * int64(s.dims) * elemSize
}
