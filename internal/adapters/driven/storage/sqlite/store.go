// Package sqlite persists index generation snapshots in a local SQLite
// database so a restart can reload documents, chunks and embeddings
// without re-extracting or re-embedding.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/inquora/inquora-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/inquora/inquora-cli/internal/core/domain"
	"github.com/inquora/inquora-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SnapshotStore = (*Store)(nil)

// Store is a SQLite-backed snapshot store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a snapshot store at the specified data directory.
// If dataDir is empty, defaults to ~/.inquora/data/index.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".inquora", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// WAL mode for better concurrency between save and load.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveSnapshot replaces the stored snapshot with the given one.
func (s *Store) SaveSnapshot(ctx context.Context, snap *driven.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"snapshot_chunks", "snapshot_documents", "snapshot_meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO snapshot_meta (id, generation) VALUES (1, ?)", snap.Generation); err != nil {
		return fmt.Errorf("saving snapshot meta: %w", err)
	}

	for _, doc := range snap.Documents {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO snapshot_documents
				(id, source_kind, uri, format, byte_size, status, generation, failure_reason, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, doc.ID, doc.SourceKind, doc.URI, doc.Format, doc.ByteSize,
			doc.Status, doc.Generation, doc.FailureReason, doc.CreatedAt.UTC(), doc.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("saving document %s: %w", doc.ID, err)
		}
	}

	for _, chunk := range snap.Chunks {
		embeddingBlob := float32SliceToBytes(chunk.Embedding)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO snapshot_chunks
				(id, document_id, sequence, start_offset, end_offset, content, embedding)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, chunk.ID, chunk.DocumentID, chunk.Sequence, chunk.Start, chunk.End,
			chunk.Content, embeddingBlob)
		if err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot, or domain.ErrNotFound when
// none has been saved.
func (s *Store) LoadSnapshot(ctx context.Context) (*driven.Snapshot, error) {
	snap := &driven.Snapshot{}

	row := s.db.QueryRowContext(ctx, "SELECT generation FROM snapshot_meta WHERE id = 1")
	if err := row.Scan(&snap.Generation); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no snapshot saved", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("loading snapshot meta: %w", err)
	}

	docs, err := s.db.QueryContext(ctx, `
		SELECT id, source_kind, uri, format, byte_size, status, generation, failure_reason, created_at, updated_at
		FROM snapshot_documents ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("loading documents: %w", err)
	}
	defer docs.Close()

	for docs.Next() {
		var doc domain.Document
		if err := docs.Scan(&doc.ID, &doc.SourceKind, &doc.URI, &doc.Format, &doc.ByteSize,
			&doc.Status, &doc.Generation, &doc.FailureReason, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		snap.Documents = append(snap.Documents, doc)
	}
	if err := docs.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	chunks, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, sequence, start_offset, end_offset, content, embedding
		FROM snapshot_chunks ORDER BY document_id, sequence
	`)
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}
	defer chunks.Close()

	for chunks.Next() {
		var chunk domain.Chunk
		var embeddingBlob []byte
		if err := chunks.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Sequence,
			&chunk.Start, &chunk.End, &chunk.Content, &embeddingBlob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
		snap.Chunks = append(snap.Chunks, chunk)
	}
	if err := chunks.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return snap, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
