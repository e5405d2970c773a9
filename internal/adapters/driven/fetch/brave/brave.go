// Package brave implements a web search snippet fetcher over the Brave
// Search API.
package brave

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/inquora/inquora-cli/internal/core/ports/driven"
)

const (
	// DefaultBaseURL is the Brave web search endpoint.
	DefaultBaseURL = "https://api.search.brave.com/res/v1/web/search"

	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	// RequestsPerSecond matches the free-tier Brave quota.
	RequestsPerSecond = 1

	// headerToken is the Brave API key header.
	headerToken = "X-Subscription-Token"
)

// Ensure Fetcher implements the driven port.
var _ driven.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves open-web search results.
type Fetcher struct {
	apiKey     string
	baseURL    string
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

// New creates a Brave search fetcher. The API key may be empty, in
// which case every Fetch fails until one is configured.
func New(apiKey string, opts ...Option) *Fetcher {
	f := &Fetcher{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
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
	return "brave_search"
}

// searchResponse is the subset of the Brave response we read.
type searchResponse struct {
	Web struct {
		Results []result `json:"results"`
	} `json:"web"`
}

type result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Fetch searches the web and returns result descriptions in rank order.
func (f *Fetcher) Fetch(ctx context.Context, query string, maxResults int) ([]driven.Snippet, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("brave search: no API key configured")
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerToken, f.apiKey)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("brave search: invalid API key (status %d)", resp.StatusCode)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("brave search: rate limited")
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("brave returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding brave response: %w", err)
	}

	results := parsed.Web.Results
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	snippets := make([]driven.Snippet, 0, len(results))
	for i, r := range results {
		snippets = append(snippets, driven.Snippet{
			Title:     r.Title,
			Text:      r.Description,
			Score:     1 / float64(i+1),
			SourceURL: r.URL,
		})
	}
	return snippets, nil
}
