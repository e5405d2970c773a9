// Package retrieval provides the closed set of capability-tagged
// retrieval tools the orchestrator fans out to. Every tool exposes the
// same contract: a query in, a bounded ranked evidence list out, with
// failures contained behind a source-unavailable marker.
package retrieval

import (
	"context"
	"strings"
	"time"

	"github.com/inquora/inquora-cli/internal/core/domain"
)

// Default tool bounds.
const (
	// DefaultMaxResults caps the evidence items one tool returns.
	DefaultMaxResults = 4

	// DefaultSnippetLimit bounds snippet length in characters.
	DefaultSnippetLimit = 600
)

// Options configures a single tool invocation.
type Options struct {
	// MaxResults caps the number of evidence items returned.
	MaxResults int

	// SnippetLimit bounds snippet length in characters.
	SnippetLimit int

	// Timeout bounds the call; on expiry the tool is treated as
	// unavailable for this invocation.
	Timeout time.Duration

	// Scope restricts document-index retrieval. Ignored by other tools.
	Scope domain.Scope
}

// normalized fills zero options with defaults.
func (o Options) normalized() Options {
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.SnippetLimit <= 0 {
		o.SnippetLimit = DefaultSnippetLimit
	}
	if o.Timeout <= 0 {
		o.Timeout = domain.DefaultToolTimeout
	}
	return o
}

// Tool is one retrieval capability.
// Implementations must contain their own failures: a broken or slow
// backing source yields zero evidence and a domain.ErrSourceUnavailable
// wrapped error, never a panic or an unbounded hang.
type Tool interface {
	// Name returns the tool identifier for logging.
	Name() string

	// Tag returns the static capability tag.
	Tag() domain.ToolTag

	// Retrieve returns ranked evidence for the query, bounded by opts.
	Retrieve(ctx context.Context, query string, opts Options) ([]domain.Evidence, error)
}

// Snippet flattens whitespace and truncates text to limit characters,
// appending an ellipsis when content was cut. The limit counts runes so
// multi-byte text is never split mid-character.
func Snippet(text string, limit int) string {
	flat := strings.Join(strings.Fields(text), " ")
	if limit <= 0 {
		return flat
	}
	runes := []rune(flat)
	if len(runes) <= limit {
		return flat
	}
	return string(runes[:limit]) + " ..."
}
