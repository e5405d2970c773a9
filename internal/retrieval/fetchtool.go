package retrieval

import (
	"context"
	"fmt"

	"github.com/inquora/inquora-cli/internal/core/domain"
	"github.com/inquora/inquora-cli/internal/core/ports/driven"
	"github.com/inquora/inquora-cli/internal/logger"
)

// Ensure FetcherTool implements the interface.
var _ Tool = (*FetcherTool)(nil)

// FetcherTool adapts an opaque snippet fetcher into a retrieval tool.
// It adds the per-call timeout, result cap and snippet bound the core
// requires, and converts any fetch failure into the source-unavailable
// marker so one broken source never aborts orchestration.
type FetcherTool struct {
	name    string
	tag     domain.ToolTag
	fetcher driven.Fetcher
}

// NewFetcherTool creates a tool around a fetcher.
func NewFetcherTool(name string, tag domain.ToolTag, fetcher driven.Fetcher) *FetcherTool {
	return &FetcherTool{name: name, tag: tag, fetcher: fetcher}
}

// Name returns the tool identifier.
func (t *FetcherTool) Name() string {
	return t.name
}

// Tag returns the static capability tag.
func (t *FetcherTool) Tag() domain.ToolTag {
	return t.tag
}

// Retrieve fetches snippets and shapes them into evidence items.
func (t *FetcherTool) Retrieve(ctx context.Context, query string, opts Options) ([]domain.Evidence, error) {
	opts = opts.normalized()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	snippets, err := t.fetcher.Fetch(ctx, query, opts.MaxResults)
	if err != nil {
		logger.Warn("Tool %s: fetch failed: %v", t.name, err)
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrSourceUnavailable, t.name, err)
	}

	if len(snippets) > opts.MaxResults {
		snippets = snippets[:opts.MaxResults]
	}

	evidence := make([]domain.Evidence, 0, len(snippets))
	for _, sn := range snippets {
		ref := sn.SourceURL
		if ref == "" {
			ref = sn.Title
		}
		evidence = append(evidence, domain.Evidence{
			Tool:      t.tag,
			Snippet:   Snippet(sn.Text, opts.SnippetLimit),
			Score:     sn.Score,
			SourceRef: ref,
		})
	}

	logger.Debug("Tool %s: %d evidence items", t.name, len(evidence))
	return evidence, nil
}
