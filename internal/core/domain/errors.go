package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates bad chunking or index parameters.
	// Rejected before any work starts.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedFormat indicates no extractor handles the declared format.
	// Isolates the affected document; a batch ingestion continues.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrCorruptInput indicates document bytes could not be decoded.
	// Isolates the affected document; a batch ingestion continues.
	ErrCorruptInput = errors.New("corrupt input")

	// ErrEmbeddingUnavailable indicates the embedding service failed after
	// exhausting the retry budget. The owning document's ingestion fails.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrDimensionMismatch indicates an embedding does not match the index
	// dimensionality. Fatal to the generation being built.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrSourceUnavailable indicates a retrieval tool's backing source
	// failed or timed out. Contained at the tool; never aborts a query.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrNoEvidence indicates every selected tool returned nothing.
	// Non-fatal: synthesis still runs with an explicit no-evidence marker.
	ErrNoEvidence = errors.New("no evidence available")

	// ErrSynthesisUnavailable indicates the answerer failed.
	// Terminal for the query and surfaced to the caller.
	ErrSynthesisUnavailable = errors.New("synthesis unavailable")
)
