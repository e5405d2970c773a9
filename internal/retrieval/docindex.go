package retrieval

import (
	"context"
	"fmt"

	"github.com/inquora/inquora-cli/internal/core/domain"
	"github.com/inquora/inquora-cli/internal/core/ports/driven"
	"github.com/inquora/inquora-cli/internal/logger"
)

// IndexSnapshot is a stable read-only view of one index generation.
// Implementations guarantee readers never observe a half-built
// generation; the provider swaps whole snapshots atomically.
type IndexSnapshot interface {
	// Generation returns the generation id of this snapshot.
	Generation() uint64

	// Search runs a scoped nearest-neighbour query.
	Search(ctx context.Context, query []float32, k int, scope domain.Scope) ([]driven.VectorHit, error)

	// Chunk resolves a chunk id to its content.
	Chunk(chunkID string) (domain.Chunk, bool)

	// DocumentURI resolves a document id to its original location.
	DocumentURI(documentID string) string

	// DocumentCount returns the number of documents in the generation.
	DocumentCount() int
}

// SnapshotSource yields the current index snapshot.
type SnapshotSource interface {
	// Current returns the latest snapshot, or false when no generation
	// has been built yet.
	Current() (IndexSnapshot, bool)
}

// Ensure DocIndexTool implements the interface.
var _ Tool = (*DocIndexTool)(nil)

// DocIndexTool retrieves from the user's indexed document corpus.
// It is the only tool backed by the vector index and registry.
type DocIndexTool struct {
	source   SnapshotSource
	embedder driven.EmbeddingService
}

// NewDocIndexTool creates the document-index retrieval tool.
func NewDocIndexTool(source SnapshotSource, embedder driven.EmbeddingService) *DocIndexTool {
	return &DocIndexTool{source: source, embedder: embedder}
}

// Name returns the tool identifier.
func (t *DocIndexTool) Name() string {
	return "doc_index_search"
}

// Tag returns the static capability tag.
func (t *DocIndexTool) Tag() domain.ToolTag {
	return domain.TagDocumentIndex
}

// Retrieve embeds the query and runs a scoped similarity search against
// the current generation. An explicitly empty scope returns no evidence
// rather than widening to the whole corpus.
func (t *DocIndexTool) Retrieve(ctx context.Context, query string, opts Options) ([]domain.Evidence, error) {
	opts = opts.normalized()

	snap, ok := t.source.Current()
	if !ok || snap.DocumentCount() == 0 {
		logger.Debug("Tool doc_index_search: no generation available")
		return nil, nil
	}
	if !opts.Scope.Unrestricted() && opts.Scope.Size() == 0 {
		logger.Debug("Tool doc_index_search: empty scope, returning nothing")
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	vec, err := t.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: doc_index_search: query embedding: %v", domain.ErrSourceUnavailable, err)
	}

	hits, err := snap.Search(ctx, vec, opts.MaxResults, opts.Scope)
	if err != nil {
		return nil, fmt.Errorf("%w: doc_index_search: %v", domain.ErrSourceUnavailable, err)
	}

	evidence := make([]domain.Evidence, 0, len(hits))
	for _, hit := range hits {
		chunk, ok := snap.Chunk(hit.ChunkID)
		if !ok {
			// Chunk vanished between search and resolution; skip.
			continue
		}
		evidence = append(evidence, domain.Evidence{
			Tool:          domain.TagDocumentIndex,
			Snippet:       Snippet(chunk.Content, opts.SnippetLimit),
			Score:         hit.Similarity,
			DocumentID:    hit.DocumentID,
			ChunkSequence: hit.Sequence,
			SourceRef:     snap.DocumentURI(hit.DocumentID),
		})
	}

	logger.Debug("Tool doc_index_search: generation %d, %d evidence items", snap.Generation(), len(evidence))
	return evidence, nil
}
