// Package extractors provides format-specific text extraction implementations.
package extractors

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/inquora/inquora-cli/internal/core/domain"
	"github.com/inquora/inquora-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry dispatches extraction by declared format.
type Registry struct {
	mu       sync.RWMutex
	byFormat map[domain.Format]driven.Extractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		byFormat: make(map[domain.Format]driven.Extractor),
	}
}

// NewDefaultRegistry creates a registry with all built-in extractors.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewPlaintext())
	r.Register(NewMarkdown())
	r.Register(NewHTML())
	return r
}

// Register adds an extractor, replacing any previous one for its formats.
func (r *Registry) Register(extractor driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, format := range extractor.Formats() {
		r.byFormat[format] = extractor
	}
}

// Extract runs the extractor registered for the format.
func (r *Registry) Extract(ctx context.Context, format domain.Format, content []byte) (string, error) {
	r.mu.RLock()
	extractor, ok := r.byFormat[format]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: no extractor for format %q", domain.ErrUnsupportedFormat, format)
	}
	return extractor.Extract(ctx, content)
}

// SupportedFormats returns all registered formats, sorted for stable output.
func (r *Registry) SupportedFormats() []domain.Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]domain.Format, 0, len(r.byFormat))
	for format := range r.byFormat {
		formats = append(formats, format)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}
