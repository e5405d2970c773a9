// Package chunker splits extracted document text into overlapping
// fixed-size segments, the unit of embedding and retrieval.
package chunker

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/inquora/inquora-cli/internal/core/domain"
)

// Span is one chunk of text with its character offsets.
// Offsets are measured in runes so multi-byte text chunks cleanly.
type Span struct {
	// Start is the inclusive rune offset of the span.
	Start int

	// End is the exclusive rune offset of the span.
	End int

	// Text is the span content.
	Text string
}

// Split divides text into spans of size characters where each adjacent
// pair shares exactly overlap characters. The final span may be shorter
// than size. The spans cover the whole input with no gaps; empty text
// yields no spans.
//
// Split is a pure function. Invalid parameters are rejected with
// domain.ErrInvalidConfig before any work is done.
func Split(text string, size, overlap int) ([]Span, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must be non-negative, got %d", domain.ErrInvalidConfig, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be less than chunk size %d", domain.ErrInvalidConfig, overlap, size)
	}

	runes := []rune(text)
	total := len(runes)
	if total == 0 {
		return nil, nil
	}

	step := size - overlap
	spans := make([]Span, 0, (total+step-1)/step)

	for start := 0; start < total; start += step {
		end := start + size
		if end > total {
			end = total
		}
		spans = append(spans, Span{
			Start: start,
			End:   end,
			Text:  string(runes[start:end]),
		})
		if end == total {
			break
		}
	}

	return spans, nil
}

// Count returns the number of spans Split produces for a text of the
// given rune length: ceil((length-overlap)/(size-overlap)) for
// length > size, otherwise one (or zero for empty text).
func Count(length, size, overlap int) int {
	if length <= 0 {
		return 0
	}
	if length <= size {
		return 1
	}
	step := size - overlap
	return (length - overlap + step - 1) / step
}

// Build splits extracted text and wraps each span in a domain.Chunk
// owned by the given document. Chunk ids are fresh on every call; a
// re-index supersedes earlier chunks rather than mutating them.
func Build(documentID, text string, opts domain.IndexOptions) ([]domain.Chunk, error) {
	spans, err := Split(text, opts.ChunkSize, opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.Chunk, len(spans))
	for i, span := range spans {
		chunks[i] = domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Sequence:   i,
			Start:      span.Start,
			End:        span.End,
			Content:    span.Text,
		}
	}
	return chunks, nil
}
