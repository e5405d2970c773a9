package driving

import (
	"context"

	"github.com/inquora/inquora-cli/internal/core/domain"
)

// IndexService builds index generations from explicit document sets.
// Selective indexing is the only ingestion entry point: documents not
// named in a request are excluded from the new generation's scope.
type IndexService interface {
	// Index ingests the requested documents into a fresh generation and
	// atomically makes it current. Per-document failures are reported in
	// the result, not returned as errors; only invalid configuration and
	// dimension mismatches abort the whole request.
	Index(ctx context.Context, req domain.IndexRequest) (*domain.IndexReport, error)

	// Documents lists registered documents, optionally filtered by status.
	// An empty filter returns everything.
	Documents(ctx context.Context, status domain.IngestStatus) ([]domain.Document, error)

	// Generation returns the current generation id, zero when no
	// generation has been built.
	Generation() uint64
}
