package driven

import (
	"context"

	"github.com/inquora/inquora-cli/internal/core/domain"
)

// SnapshotStore optionally persists the current index generation so a
// restart can reload documents, chunks and embeddings without
// re-extracting or re-embedding. There is no durability guarantee
// beyond best effort; the in-memory index remains authoritative.
type SnapshotStore interface {
	// SaveSnapshot replaces the stored snapshot with the given one.
	SaveSnapshot(ctx context.Context, snap *Snapshot) error

	// LoadSnapshot returns the stored snapshot.
	// Returns domain.ErrNotFound when none has been saved.
	LoadSnapshot(ctx context.Context) (*Snapshot, error)

	// Close releases resources.
	Close() error
}

// Snapshot is a persisted image of one index generation.
type Snapshot struct {
	// Generation is the generation id at save time.
	Generation uint64

	// Documents are the registry records in the generation.
	Documents []domain.Document

	// Chunks are all chunks with embeddings, grouped by document.
	Chunks []domain.Chunk
}
