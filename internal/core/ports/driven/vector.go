package driven

import (
	"context"

	"github.com/inquora/inquora-cli/internal/core/domain"
)

// VectorIndex provides similarity search over chunk embeddings.
// The reference implementation is an exact flat cosine index; the design
// requires correctness and deterministic ordering, not a specific
// index algorithm.
type VectorIndex interface {
	// Insert adds or replaces the entry for a chunk.
	Insert(ctx context.Context, entry VectorEntry) error

	// RemoveDocument removes every chunk owned by the document.
	// Used when a re-index supersedes a stale generation.
	RemoveDocument(ctx context.Context, documentID string) error

	// Search returns the k entries most similar to the query vector whose
	// owning document the scope admits, ranked by descending cosine
	// similarity. Ties break by lower chunk sequence, then lower document
	// id. The scope filter applies before ranking, not as a post-filter
	// on the top k. Returns fewer than k when fewer candidates exist and
	// never errors on an empty result.
	Search(ctx context.Context, query []float32, k int, scope domain.Scope) ([]VectorHit, error)

	// Dimensions returns the fixed vector dimensionality, or zero before
	// the first insert when the index adopts it lazily.
	Dimensions() int

	// Len returns the number of stored entries.
	Len() int

	// Close releases resources.
	Close() error
}

// VectorEntry is one stored vector with its ownership bookkeeping.
type VectorEntry struct {
	// ChunkID identifies the chunk.
	ChunkID string

	// DocumentID is the owning document, used for scoped search.
	DocumentID string

	// Sequence is the chunk ordinal, used for deterministic tie-breaks.
	Sequence int

	// Vector is the embedding.
	Vector []float32
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the owning document.
	DocumentID string

	// Sequence is the chunk ordinal within its document.
	Sequence int

	// Similarity is the cosine similarity score.
	Similarity float64
}
