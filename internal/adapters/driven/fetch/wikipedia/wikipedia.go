// Package wikipedia implements snippet fetchers over the MediaWiki
// query API. Two fetchers share one client: a quick variant returning
// intro-only extracts for short factual lookups, and a deep variant
// returning full page extracts for multi-part queries.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/inquora/inquora-cli/internal/core/ports/driven"
)

const (
	// DefaultBaseURL is the English Wikipedia API endpoint.
	DefaultBaseURL = "https://en.wikipedia.org/w/api.php"

	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	// RequestsPerSecond is the proactive throttle rate. The API allows
	// more, but retrieval never needs it.
	RequestsPerSecond = 5

	// extractChars bounds the extract length requested from the API.
	extractChars = 1200
)

// Ensure Fetcher implements the driven port.
var _ driven.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves ranked page extracts for a search query.
type Fetcher struct {
	name       string
	baseURL    string
	introOnly  bool
	maxItems   int
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithBaseURL overrides the API endpoint. Used in tests.
func WithBaseURL(u string) Option {
	return func(f *Fetcher) { f.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.httpClient = c }
}

// NewQuickFetcher creates the intro-only fetcher for short factual
// lookups. It returns at most one summary regardless of the requested
// result count; a quick lookup is a single best-match answer.
func NewQuickFetcher(opts ...Option) *Fetcher {
	return newFetcher("wikipedia_summary", true, 1, opts...)
}

// NewDeepFetcher creates the full-extract fetcher for multi-part
// queries.
func NewDeepFetcher(opts ...Option) *Fetcher {
	return newFetcher("wikipedia_extracts", false, 0, opts...)
}

func newFetcher(name string, introOnly bool, maxItems int, opts ...Option) *Fetcher {
	f := &Fetcher{
		name:       name,
		baseURL:    DefaultBaseURL,
		introOnly:  introOnly,
		maxItems:   maxItems,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RequestsPerSecond), 1),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the fetcher identifier.
func (f *Fetcher) Name() string {
	return f.name
}

// searchResponse is the subset of the query API response we read.
type searchResponse struct {
	Query struct {
		Pages map[string]page `json:"pages"`
	} `json:"query"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

type page struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	Index   int    `json:"index"`
}

// Fetch runs a generator search and returns page extracts ranked by
// the API's relevance index.
func (f *Fetcher) Fetch(ctx context.Context, query string, maxResults int) ([]driven.Snippet, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if f.maxItems > 0 && maxResults > f.maxItems {
		maxResults = f.maxItems
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("generator", "search")
	params.Set("gsrsearch", query)
	params.Set("gsrlimit", strconv.Itoa(maxResults))
	params.Set("prop", "extracts")
	params.Set("explaintext", "1")
	params.Set("exchars", strconv.Itoa(extractChars))
	if f.introOnly {
		params.Set("exintro", "1")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikipedia request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("wikipedia returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding wikipedia response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("wikipedia error %s: %s", parsed.Error.Code, parsed.Error.Info)
	}

	pages := make([]page, 0, len(parsed.Query.Pages))
	for _, p := range parsed.Query.Pages {
		if p.Extract != "" {
			pages = append(pages, p)
		}
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })
	if len(pages) > maxResults {
		pages = pages[:maxResults]
	}

	snippets := make([]driven.Snippet, 0, len(pages))
	for _, p := range pages {
		snippets = append(snippets, driven.Snippet{
			Title:     p.Title,
			Text:      p.Extract,
			Score:     1 / float64(p.Index+1),
			SourceURL: pageURL(p.Title),
		})
	}
	return snippets, nil
}

func pageURL(title string) string {
	return "https://en.wikipedia.org/wiki/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}
