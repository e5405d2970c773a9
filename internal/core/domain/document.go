package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// SourceKind identifies where a document's bytes come from.
type SourceKind string

const (
	// SourceLocalFile is a document read from the local filesystem.
	SourceLocalFile SourceKind = "local-file"

	// SourceRemoteURL is a document fetched over HTTP(S).
	SourceRemoteURL SourceKind = "remote-url"
)

// Format is the declared content format of a document.
// It selects which extractor turns the raw bytes into plain text.
type Format string

const (
	// FormatPlaintext is plain UTF-8 text (txt, csv, source code).
	FormatPlaintext Format = "plaintext"

	// FormatMarkdown is Markdown text.
	FormatMarkdown Format = "markdown"

	// FormatHTML is an HTML page.
	FormatHTML Format = "html"
)

// IngestStatus tracks a document through the indexing pipeline.
type IngestStatus string

const (
	// StatusUnindexed means the document is registered but not yet processed.
	StatusUnindexed IngestStatus = "unindexed"

	// StatusIndexing means ingestion is in progress.
	StatusIndexing IngestStatus = "indexing"

	// StatusIndexed means the document's chunks are part of a generation.
	StatusIndexed IngestStatus = "indexed"

	// StatusFailed means ingestion failed; the document can be retried.
	StatusFailed IngestStatus = "failed"
)

// Document represents a registered knowledge document.
// It is owned by the Registry; only the ingestion pipeline mutates it.
type Document struct {
	// ID is the stable identifier derived from the URI.
	ID string

	// SourceKind says whether the document is a local file or a remote URL.
	SourceKind SourceKind

	// URI is the original location (file path or URL).
	URI string

	// Format is the declared content format.
	Format Format

	// ByteSize is the raw content length in bytes.
	ByteSize int

	// Status is the current ingestion state.
	Status IngestStatus

	// Generation is the index generation this document was last indexed
	// into. Zero when the document has never been indexed.
	Generation uint64

	// FailureReason describes the last ingestion failure, if any.
	FailureReason string

	// CreatedAt is when the document was first registered.
	CreatedAt time.Time

	// UpdatedAt is when the document last changed state.
	UpdatedAt time.Time
}

// Chunk is a bounded, overlapping segment of a document's text.
// It is the unit of embedding and retrieval. Chunks are immutable once
// created; re-indexing a document supersedes its chunks.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Sequence is the ordinal position within the document.
	Sequence int

	// Start and End are the character span within the extracted text.
	Start int
	End   int

	// Content is the overlap-adjusted chunk text.
	Content string

	// Embedding is the vector representation, once computed.
	Embedding []float32
}

// DocumentID derives the stable document id for a URI.
// Identical URIs always map to the same id, so re-registering is
// idempotent by construction.
func DocumentID(uri string) string {
	sum := sha256.Sum256([]byte(uri))
	return hex.EncodeToString(sum[:8])
}
