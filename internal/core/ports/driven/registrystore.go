package driven

import (
	"context"

	"github.com/inquora/inquora-cli/internal/core/domain"
)

// RegistryStore persists document registry records.
// Document ids are unique within a store; Save on an existing id
// replaces the record.
type RegistryStore interface {
	// Save stores or updates a document record.
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by id.
	// Returns domain.ErrNotFound when the id is unknown.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List returns all documents, ordered by id for reproducibility.
	List(ctx context.Context) ([]domain.Document, error)

	// Delete removes a document record.
	Delete(ctx context.Context, id string) error
}
