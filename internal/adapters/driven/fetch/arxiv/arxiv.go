// Package arxiv implements a snippet fetcher over the arXiv Atom API.
package arxiv

import (
	"context"
	"encoding/xml"
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
	// DefaultBaseURL is the arXiv export API endpoint.
	DefaultBaseURL = "http://export.arxiv.org/api/query"

	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 15 * time.Second

	// RequestsPerThreeSeconds matches the published arXiv guidance of
	// one request every three seconds.
	RequestsPerThreeSeconds = 1.0 / 3.0
)

// Ensure Fetcher implements the driven port.
var _ driven.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves paper abstracts ranked by arXiv relevance.
type Fetcher struct {
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

// New creates an arXiv fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RequestsPerThreeSeconds), 1),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the fetcher identifier.
func (f *Fetcher) Name() string {
	return "arxiv_search"
}

// feed is the subset of the Atom response we read.
type feed struct {
	Entries []entry `xml:"entry"`
}

type entry struct {
	ID        string   `xml:"id"`
	Title     string   `xml:"title"`
	Summary   string   `xml:"summary"`
	Published string   `xml:"published"`
	Authors   []author `xml:"author"`
}

type author struct {
	Name string `xml:"name"`
}

// Fetch searches arXiv and returns abstracts in relevance order.
func (f *Fetcher) Fetch(ctx context.Context, query string, maxResults int) ([]driven.Snippet, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "relevance")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("arxiv returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed feed
	if err := xml.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding arxiv response: %w", err)
	}

	entries := parsed.Entries
	if len(entries) > maxResults {
		entries = entries[:maxResults]
	}

	snippets := make([]driven.Snippet, 0, len(entries))
	for i, e := range entries {
		snippets = append(snippets, driven.Snippet{
			Title:     collapse(e.Title),
			Text:      abstractText(e),
			Score:     1 / float64(i+1),
			SourceURL: e.ID,
		})
	}
	return snippets, nil
}

// abstractText prefixes the abstract with its citation line so the
// answerer can attribute the paper.
func abstractText(e entry) string {
	var b strings.Builder
	b.WriteString(collapse(e.Title))
	if len(e.Authors) > 0 {
		names := make([]string, len(e.Authors))
		for i, a := range e.Authors {
			names[i] = a.Name
		}
		b.WriteString(" by ")
		b.WriteString(strings.Join(names, ", "))
	}
	if len(e.Published) >= 4 {
		b.WriteString(" (" + e.Published[:4] + ")")
	}
	b.WriteString(". ")
	b.WriteString(collapse(e.Summary))
	return b.String()
}

// collapse flattens the newline-wrapped text arXiv returns.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
