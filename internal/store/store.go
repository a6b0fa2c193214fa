// Package store provides the SQLite-backed corpus store for the docqa
// engine: documents, their derived chunks, and the persisted embedding
// blobs behind the vector cache. All cross-row invariants (atomic chunk
// batches, cascade deletes) are enforced at the transaction level, never by
// application-side loops that can partially fail.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/54b3r/docqa-go/internal/rag"
)

// SQLiteStore persists the corpus in a local SQLite database.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the corpus database. It
// resolves to ~/.docqa/corpus.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".docqa")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "corpus.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the
// schema migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	// Cascade deletes (documents → chunks → embeddings) rely on foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
    id          TEXT    PRIMARY KEY,
    title       TEXT    NOT NULL,
    content     TEXT    NOT NULL,
    source      TEXT,
    created_at  INTEGER NOT NULL,  -- Unix timestamp (seconds)
    updated_at  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
    id           TEXT    PRIMARY KEY,
    document_id  TEXT    NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    content      TEXT    NOT NULL,
    token_count  INTEGER NOT NULL,
    chunk_index  INTEGER NOT NULL,
    created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_document
    ON chunks (document_id, chunk_index);
CREATE TABLE IF NOT EXISTS embeddings (
    chunk_id     TEXT    PRIMARY KEY REFERENCES chunks(id) ON DELETE CASCADE,
    vector_data  BLOB    NOT NULL,
    created_at   INTEGER NOT NULL
);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// InsertDocument persists a single document. Chunks are never touched here.
func (s *SQLiteStore) InsertDocument(ctx context.Context, doc *rag.Document) error {
	const q = `INSERT INTO documents (id, title, content, source, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, doc.ID, doc.Title, doc.Content,
		nullable(doc.Source), doc.CreatedAt.Unix(), doc.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("store: insert document %s: %w", doc.ID, wrapPersistence(err))
	}
	return nil
}

// GetDocument returns the document with the given ID, or ErrNotFound.
func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*rag.Document, error) {
	const q = `SELECT id, title, content, source, created_at, updated_at
               FROM documents WHERE id = ?`
	doc, err := scanDocument(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: document %s: %w", id, rag.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get document %s: %w", id, wrapPersistence(err))
	}
	return doc, nil
}

// ListDocuments returns all documents ordered by creation time, newest first.
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]rag.Document, error) {
	const q = `SELECT id, title, content, source, created_at, updated_at
               FROM documents ORDER BY created_at DESC, id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: list documents: %w", wrapPersistence(err))
	}
	defer rows.Close()

	var docs []rag.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list documents scan: %w", wrapPersistence(err))
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list documents rows: %w", wrapPersistence(err))
	}
	return docs, nil
}

// DeleteDocument removes a document and, via ON DELETE CASCADE, every chunk
// and embedding derived from it. Returns ErrNotFound for an unknown ID.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete document %s: %w", id, wrapPersistence(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete document %s: %w", id, wrapPersistence(err))
	}
	if n == 0 {
		return fmt.Errorf("store: document %s: %w", id, rag.ErrNotFound)
	}
	return nil
}

// InsertChunks persists a batch of chunks in one transaction — either the
// whole batch is observable or none of it.
func (s *SQLiteStore) InsertChunks(ctx context.Context, chunks []rag.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: insert chunks begin: %w", wrapPersistence(err))
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, content, token_count, chunk_index, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: insert chunks prepare: %w", wrapPersistence(err))
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Content,
			c.TokenCount, c.Index, c.CreatedAt.Unix()); err != nil {
			return fmt.Errorf("store: insert chunk %s: %w", c.ID, wrapPersistence(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: insert chunks commit: %w", wrapPersistence(err))
	}
	return nil
}

// FetchChunks returns a document's chunks ordered by chunk_index ascending.
// This ordering is load-bearing for callers reconstructing document order.
func (s *SQLiteStore) FetchChunks(ctx context.Context, documentID string) ([]rag.Chunk, error) {
	const q = `SELECT id, document_id, content, token_count, chunk_index, created_at
               FROM chunks WHERE document_id = ? ORDER BY chunk_index ASC`
	rows, err := s.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, fmt.Errorf("store: fetch chunks for %s: %w", documentID, wrapPersistence(err))
	}
	defer rows.Close()
	return collectChunks(rows)
}

// AllChunks returns every chunk in the corpus, grouped by document and
// ordered by chunk_index within each document.
func (s *SQLiteStore) AllChunks(ctx context.Context) ([]rag.Chunk, error) {
	const q = `SELECT id, document_id, content, token_count, chunk_index, created_at
               FROM chunks ORDER BY document_id, chunk_index ASC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: all chunks: %w", wrapPersistence(err))
	}
	defer rows.Close()
	return collectChunks(rows)
}

// GetChunk returns the chunk with the given ID, or ErrNotFound.
func (s *SQLiteStore) GetChunk(ctx context.Context, id string) (*rag.Chunk, error) {
	const q = `SELECT id, document_id, content, token_count, chunk_index, created_at
               FROM chunks WHERE id = ?`
	c, err := scanChunk(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: chunk %s: %w", id, rag.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get chunk %s: %w", id, wrapPersistence(err))
	}
	return c, nil
}

// CountDocuments returns the number of persisted documents.
func (s *SQLiteStore) CountDocuments(ctx context.Context) (int, error) {
	return s.countRows(ctx, "documents")
}

// CountChunks returns the number of persisted chunks.
func (s *SQLiteStore) CountChunks(ctx context.Context) (int, error) {
	return s.countRows(ctx, "chunks")
}

// countRows counts the rows of one of the fixed schema tables.
func (s *SQLiteStore) countRows(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count %s: %w", table, wrapPersistence(err))
	}
	return n, nil
}

// SaveVectors persists embedding blobs in one transaction. Existing entries
// are replaced. Satisfies vectorstore.Persistence.
func (s *SQLiteStore) SaveVectors(ctx context.Context, blobs map[string][]byte) error {
	if len(blobs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: save vectors begin: %w", wrapPersistence(err))
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (chunk_id, vector_data, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET vector_data = excluded.vector_data`)
	if err != nil {
		return fmt.Errorf("store: save vectors prepare: %w", wrapPersistence(err))
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for chunkID, blob := range blobs {
		if _, err := stmt.ExecContext(ctx, chunkID, blob, now); err != nil {
			return fmt.Errorf("store: save vector for chunk %s: %w", chunkID, wrapPersistence(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: save vectors commit: %w", wrapPersistence(err))
	}
	return nil
}

// DeleteVectors removes embedding rows in one transaction. Missing IDs are
// not an error. Satisfies vectorstore.Persistence.
func (s *SQLiteStore) DeleteVectors(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: delete vectors begin: %w", wrapPersistence(err))
	}
	defer tx.Rollback() //nolint:errcheck

	for _, id := range chunkIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings WHERE chunk_id = ?`, id); err != nil {
			return fmt.Errorf("store: delete vector for chunk %s: %w", id, wrapPersistence(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: delete vectors commit: %w", wrapPersistence(err))
	}
	return nil
}

// LoadVectors returns every persisted chunk_id → blob entry. Satisfies
// vectorstore.Persistence.
func (s *SQLiteStore) LoadVectors(ctx context.Context) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chunk_id, vector_data FROM embeddings`)
	if err != nil {
		return nil, fmt.Errorf("store: load vectors: %w", wrapPersistence(err))
	}
	defer rows.Close()

	blobs := make(map[string][]byte)
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("store: load vectors scan: %w", wrapPersistence(err))
		}
		blobs[id] = blob
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: load vectors rows: %w", wrapPersistence(err))
	}
	return blobs, nil
}

// Ping verifies the database connection is alive. Used by readiness probes.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

// scanDocument reads one documents row.
func scanDocument(row scanner) (*rag.Document, error) {
	var doc rag.Document
	var source sql.NullString
	var created, updated int64
	if err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &source, &created, &updated); err != nil {
		return nil, err
	}
	doc.Source = source.String
	doc.CreatedAt = time.Unix(created, 0)
	doc.UpdatedAt = time.Unix(updated, 0)
	return &doc, nil
}

// scanChunk reads one chunks row.
func scanChunk(row scanner) (*rag.Chunk, error) {
	var c rag.Chunk
	var created int64
	if err := row.Scan(&c.ID, &c.DocumentID, &c.Content, &c.TokenCount, &c.Index, &created); err != nil {
		return nil, err
	}
	c.CreatedAt = time.Unix(created, 0)
	return &c, nil
}

// collectChunks drains a chunk query result set.
func collectChunks(rows *sql.Rows) ([]rag.Chunk, error) {
	var chunks []rag.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("store: chunk scan: %w", wrapPersistence(err))
		}
		chunks = append(chunks, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: chunk rows: %w", wrapPersistence(err))
	}
	return chunks, nil
}

// nullable converts an empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// wrapPersistence tags a database error with the persistence sentinel so
// callers can classify it with errors.Is.
func wrapPersistence(err error) error {
	return fmt.Errorf("%w: %w", rag.ErrPersistence, err)
}
