// Package services implements the core application logic behind the
// driving ports: document registry, ingestion pipeline and query
// orchestration.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/inquora/inquora-cli/internal/core/domain"
	"github.com/inquora/inquora-cli/internal/core/ports/driven"
	"github.com/inquora/inquora-cli/internal/logger"
)

// Registry tracks known documents and their ingestion lifecycle.
// Registration is idempotent: the same URI always yields the same
// record. Only the ingestion pipeline moves documents between states.
// A mutex serializes the get-then-save sequences so concurrent
// registrations of one URI cannot overwrite each other's record.
type Registry struct {
	mu    sync.Mutex
	store driven.RegistryStore
}

// NewRegistry creates a registry over the given store.
func NewRegistry(store driven.RegistryStore) *Registry {
	return &Registry{store: store}
}

// Register adds a document for the URI, or returns the existing record
// unchanged when the URI is already known.
func (r *Registry) Register(ctx context.Context, uri string, kind domain.SourceKind) (*domain.Document, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: empty document uri", domain.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := domain.DocumentID(uri)
	existing, err := r.store.Get(ctx, id)
	if err == nil {
		return existing, nil
	}

	now := time.Now()
	doc := &domain.Document{
		ID:         id,
		SourceKind: kind,
		URI:        uri,
		Status:     domain.StatusUnindexed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.store.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("registering document %s: %w", uri, err)
	}
	logger.Debug("Registered document %s (%s)", id, uri)
	return doc, nil
}

// Get returns the document record for the id.
func (r *Registry) Get(ctx context.Context, id string) (*domain.Document, error) {
	return r.store.Get(ctx, id)
}

// List returns documents ordered by id, optionally filtered by status.
// An empty status returns everything.
func (r *Registry) List(ctx context.Context, status domain.IngestStatus) ([]domain.Document, error) {
	docs, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return docs, nil
	}
	filtered := docs[:0]
	for _, doc := range docs {
		if doc.Status == status {
			filtered = append(filtered, doc)
		}
	}
	return filtered, nil
}

// MarkIndexing moves a document into the indexing state and clears any
// previous failure. Failed documents may be retried this way.
func (r *Registry) MarkIndexing(ctx context.Context, id string) error {
	return r.transition(ctx, id, func(doc *domain.Document) error {
		doc.Status = domain.StatusIndexing
		doc.FailureReason = ""
		return nil
	})
}

// MarkIndexed records a successful ingestion into the given generation.
// Valid only from the indexing state.
func (r *Registry) MarkIndexed(ctx context.Context, id string, generation uint64, format domain.Format, byteSize int) error {
	return r.transition(ctx, id, func(doc *domain.Document) error {
		if doc.Status != domain.StatusIndexing {
			return fmt.Errorf("%w: document %s is %s, expected %s",
				domain.ErrInvalidInput, id, doc.Status, domain.StatusIndexing)
		}
		doc.Status = domain.StatusIndexed
		doc.Generation = generation
		doc.Format = format
		doc.ByteSize = byteSize
		doc.FailureReason = ""
		return nil
	})
}

// MarkFailed records an ingestion failure. Valid only from the
// indexing state.
func (r *Registry) MarkFailed(ctx context.Context, id, reason string) error {
	return r.transition(ctx, id, func(doc *domain.Document) error {
		if doc.Status != domain.StatusIndexing {
			return fmt.Errorf("%w: document %s is %s, expected %s",
				domain.ErrInvalidInput, id, doc.Status, domain.StatusIndexing)
		}
		doc.Status = domain.StatusFailed
		doc.FailureReason = reason
		return nil
	})
}

// Remove deletes a document record.
func (r *Registry) Remove(ctx context.Context, id string) error {
	return r.store.Delete(ctx, id)
}

func (r *Registry) transition(ctx context.Context, id string, apply func(*domain.Document) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := apply(doc); err != nil {
		return err
	}
	doc.UpdatedAt = time.Now()
	return r.store.Save(ctx, doc)
}
