package driven

import (
	"context"

	"github.com/inquora/inquora-cli/internal/core/domain"
)

// DocumentLoader fetches raw bytes for a document reference and infers
// its declared format. Local files are read directly; URLs are fetched
// with a bounded HTTP request.
type DocumentLoader interface {
	// Load returns the raw bytes and inferred format for the URI.
	Load(ctx context.Context, uri string, kind domain.SourceKind) ([]byte, domain.Format, error)
}
