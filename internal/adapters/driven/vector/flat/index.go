// Package flat provides an exact in-memory vector index using
// brute-force cosine similarity. At the reference scale of low
// thousands of chunks this is both simpler and more predictable than an
// approximate structure, and it guarantees the deterministic ordering
// scoped queries require.
package flat

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/inquora/inquora-cli/internal/core/domain"
	"github.com/inquora/inquora-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a flat cosine-similarity index.
// All mutation is mutex-protected; searches take a read lock so
// concurrent readers proceed against a stable view.
type Index struct {
	mu      sync.RWMutex
	dims    int
	entries map[string]driven.VectorEntry
}

// New creates an empty index. When dims is zero the index adopts the
// dimensionality of the first inserted vector; every later insert and
// query must match it.
func New(dims int) *Index {
	return &Index{
		dims:    dims,
		entries: make(map[string]driven.VectorEntry),
	}
}

// Insert adds or replaces the entry for a chunk.
func (idx *Index) Insert(_ context.Context, entry driven.VectorEntry) error {
	if entry.ChunkID == "" || entry.DocumentID == "" {
		return fmt.Errorf("%w: vector entry needs chunk and document ids", domain.ErrInvalidInput)
	}
	if len(entry.Vector) == 0 {
		return fmt.Errorf("%w: empty vector for chunk %s", domain.ErrInvalidInput, entry.ChunkID)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.dims == 0 {
		idx.dims = len(entry.Vector)
	} else if len(entry.Vector) != idx.dims {
		return fmt.Errorf("%w: got %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(entry.Vector), idx.dims)
	}

	idx.entries[entry.ChunkID] = entry
	return nil
}

// RemoveDocument removes every chunk owned by the document.
func (idx *Index) RemoveDocument(_ context.Context, documentID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for id, entry := range idx.entries {
		if entry.DocumentID == documentID {
			delete(idx.entries, id)
		}
	}
	return nil
}

// Search returns the k most similar admitted entries.
// The scope filter applies before ranking so out-of-scope
// near-duplicates never starve in-scope results.
func (idx *Index) Search(_ context.Context, query []float32, k int, scope domain.Scope) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.dims != 0 && len(query) != idx.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), idx.dims)
	}

	hits := make([]driven.VectorHit, 0, len(idx.entries))
	for _, entry := range idx.entries {
		if !scope.Allows(entry.DocumentID) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:    entry.ChunkID,
			DocumentID: entry.DocumentID,
			Sequence:   entry.Sequence,
			Similarity: cosine(query, entry.Vector),
		})
	}

	// Descending score; ties break by lower sequence, then lower
	// document id, then chunk id. Map iteration order never leaks into
	// the result.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		if hits[i].Sequence != hits[j].Sequence {
			return hits[i].Sequence < hits[j].Sequence
		}
		if hits[i].DocumentID != hits[j].DocumentID {
			return hits[i].DocumentID < hits[j].DocumentID
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Dimensions returns the fixed vector dimensionality.
func (idx *Index) Dimensions() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dims
}

// Len returns the number of stored entries.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}

// cosine computes cosine similarity on raw vectors. Zero vectors score
// zero rather than dividing by zero.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
