// Package loader fetches raw document bytes from local files and
// remote URLs and infers their declared format.
package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/inquora/inquora-cli/internal/core/domain"
	"github.com/inquora/inquora-cli/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// Default configuration values.
const (
	// DefaultTimeout is the HTTP request timeout for remote documents.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBytes caps remote document size.
	DefaultMaxBytes = 8 << 20 // 8 MiB
)

// Loader reads document bytes and infers the format from the file
// extension, falling back to the Content-Type header for URLs.
type Loader struct {
	client   *http.Client
	maxBytes int64
}

// Option configures the loader.
type Option func(*Loader)

// WithHTTPClient replaces the HTTP client, for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		l.client = client
	}
}

// WithMaxBytes sets the remote document size cap.
func WithMaxBytes(n int64) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxBytes = n
		}
	}
}

// New creates a document loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		client:   &http.Client{Timeout: DefaultTimeout},
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the raw bytes and inferred format for the URI.
func (l *Loader) Load(ctx context.Context, uri string, kind domain.SourceKind) ([]byte, domain.Format, error) {
	switch kind {
	case domain.SourceLocalFile:
		return l.loadFile(uri)
	case domain.SourceRemoteURL:
		return l.loadURL(ctx, uri)
	default:
		return nil, "", fmt.Errorf("%w: unknown source kind %q", domain.ErrInvalidInput, kind)
	}
}

func (l *Loader) loadFile(path string) ([]byte, domain.Format, error) {
	format, err := formatForExtension(filepath.Ext(path))
	if err != nil {
		return nil, "", err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	return content, format, nil
}

func (l *Loader) loadURL(ctx context.Context, url string) ([]byte, domain.Format, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "inquora-cli")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}

	// Prefer the path extension; most pages come back as HTML.
	if format, err := formatForExtension(filepath.Ext(req.URL.Path)); err == nil {
		return content, format, nil
	}
	return content, formatForContentType(resp.Header.Get("Content-Type")), nil
}

// formatForExtension maps a file extension to a declared format.
func formatForExtension(ext string) (domain.Format, error) {
	switch strings.ToLower(ext) {
	case ".txt", ".csv", ".log", ".text":
		return domain.FormatPlaintext, nil
	case ".md", ".markdown":
		return domain.FormatMarkdown, nil
	case ".html", ".htm":
		return domain.FormatHTML, nil
	default:
		return "", fmt.Errorf("%w: extension %q", domain.ErrUnsupportedFormat, ext)
	}
}

// formatForContentType maps an HTTP Content-Type to a declared format.
func formatForContentType(contentType string) domain.Format {
	switch {
	case strings.Contains(contentType, "text/markdown"):
		return domain.FormatMarkdown
	case strings.Contains(contentType, "text/plain"):
		return domain.FormatPlaintext
	default:
		return domain.FormatHTML
	}
}
