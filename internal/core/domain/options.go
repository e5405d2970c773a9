package domain

import (
	"fmt"
	"time"
)

// Default configuration values.
const (
	DefaultChunkSize      = 1200
	DefaultChunkOverlap   = 200
	DefaultSimilarityTopK = 4
	DefaultToolTimeout    = 15 * time.Second
	DefaultMaxConcurrency = 4
)

// IndexOptions configures ingestion and retrieval behaviour.
type IndexOptions struct {
	// ChunkSize is the chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the number of characters shared by adjacent chunks.
	// Must be non-negative and strictly less than ChunkSize.
	ChunkOverlap int

	// SimilarityTopK is the number of nearest chunks a query returns.
	SimilarityTopK int

	// ToolTimeout bounds each individual tool call.
	ToolTimeout time.Duration

	// MaxConcurrency bounds in-flight external calls (embedding, fetch).
	MaxConcurrency int
}

// DefaultIndexOptions returns the default configuration.
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{
		ChunkSize:      DefaultChunkSize,
		ChunkOverlap:   DefaultChunkOverlap,
		SimilarityTopK: DefaultSimilarityTopK,
		ToolTimeout:    DefaultToolTimeout,
		MaxConcurrency: DefaultMaxConcurrency,
	}
}

// Validate rejects invalid option combinations before any work starts.
func (o IndexOptions) Validate() error {
	if o.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidConfig, o.ChunkSize)
	}
	if o.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk_overlap must be non-negative, got %d", ErrInvalidConfig, o.ChunkOverlap)
	}
	if o.ChunkOverlap >= o.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap %d must be less than chunk_size %d",
			ErrInvalidConfig, o.ChunkOverlap, o.ChunkSize)
	}
	if o.SimilarityTopK <= 0 {
		return fmt.Errorf("%w: similarity_top_k must be positive, got %d", ErrInvalidConfig, o.SimilarityTopK)
	}
	if o.ToolTimeout <= 0 {
		return fmt.Errorf("%w: tool_timeout must be positive, got %s", ErrInvalidConfig, o.ToolTimeout)
	}
	if o.MaxConcurrency <= 0 {
		return fmt.Errorf("%w: max_concurrency must be positive, got %d", ErrInvalidConfig, o.MaxConcurrency)
	}
	return nil
}

// IndexRequest names the exact documents to include in a new index
// generation. Documents not named are excluded from the generation's
// scope even if previously indexed.
type IndexRequest struct {
	// Paths are local file paths to ingest.
	Paths []string

	// URLs are remote pages to fetch and ingest.
	URLs []string

	// Options overrides the configured index options when non-zero.
	Options IndexOptions
}

// DocumentReport is the per-document outcome of a batch ingestion.
type DocumentReport struct {
	// DocumentID is the stable id of the document.
	DocumentID string

	// URI is the original location.
	URI string

	// Status is the final ingestion state.
	Status IngestStatus

	// Chunks is the number of chunks indexed.
	Chunks int

	// FailureReason is set when Status is StatusFailed.
	FailureReason string
}

// IndexReport summarises a batch ingestion.
type IndexReport struct {
	// Generation is the id of the generation built by this request.
	Generation uint64

	// Documents holds one report per requested document, in request order.
	Documents []DocumentReport
}

// Indexed returns the number of successfully indexed documents.
func (r *IndexReport) Indexed() int {
	n := 0
	for _, d := range r.Documents {
		if d.Status == StatusIndexed {
			n++
		}
	}
	return n
}

// Failed returns the number of failed documents.
func (r *IndexReport) Failed() int {
	n := 0
	for _, d := range r.Documents {
		if d.Status == StatusFailed {
			n++
		}
	}
	return n
}

// AskOptions configures a single orchestrated query.
type AskOptions struct {
	// Scope restricts document-index retrieval. The zero value means
	// "current generation", i.e. unrestricted within the latest index.
	Scope Scope

	// Tools, when non-empty, bypasses rule-based selection and fans out
	// to exactly these capability tags in the given order.
	Tools []ToolTag

	// TopK overrides the configured similarity_top_k when positive.
	TopK int

	// Deadline bounds the whole fan-out phase. Zero means the configured
	// tool timeout plus a small margin.
	Deadline time.Duration
}

// Answer is the terminal result of an orchestrated query.
type Answer struct {
	// Text is the synthesized response.
	Text string

	// Evidence is the aggregated evidence handed to the answerer,
	// in deterministic tool-selection order.
	Evidence []Evidence

	// NoEvidence marks an answer synthesized without any evidence.
	NoEvidence bool

	// ToolErrors records per-tool failures as structured status,
	// keyed by capability tag.
	ToolErrors map[ToolTag]string
}
