package driven

import "context"

// Fetcher retrieves ranked snippets from an external source.
// One fetcher backs each non-document retrieval tool (encyclopedia,
// paper repository, web search). Fetchers are opaque to the core: the
// tool layer adds timeouts, result caps and snippet bounds.
type Fetcher interface {
	// Name returns the fetcher identifier for logging.
	Name() string

	// Fetch returns up to maxResults snippets ranked by relevance.
	Fetch(ctx context.Context, query string, maxResults int) ([]Snippet, error)
}

// Snippet is one ranked result from a fetcher.
type Snippet struct {
	// Title is the result title, when the source provides one.
	Title string

	// Text is the snippet content.
	Text string

	// Score is the source-assigned relevance score.
	Score float64

	// SourceURL is the provenance link.
	SourceURL string
}
