package driven

import (
	"context"

	"github.com/inquora/inquora-cli/internal/core/domain"
)

// Extractor turns raw document bytes into plain text.
// Each extractor handles specific declared formats.
type Extractor interface {
	// Formats returns the formats this extractor handles.
	Formats() []domain.Format

	// Extract converts raw bytes into plain text.
	// Returns domain.ErrCorruptInput when the bytes cannot be decoded.
	Extract(ctx context.Context, content []byte) (string, error)
}

// ExtractorRegistry dispatches extraction by declared format.
type ExtractorRegistry interface {
	// Extract runs the extractor registered for the format.
	// Returns domain.ErrUnsupportedFormat when no extractor matches.
	Extract(ctx context.Context, format domain.Format, content []byte) (string, error)

	// Register adds an extractor to the registry.
	Register(extractor Extractor)

	// SupportedFormats returns all formats that can be extracted.
	SupportedFormats() []domain.Format
}
