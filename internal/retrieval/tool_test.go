package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inquora/inquora-cli/internal/core/domain"
	"github.com/inquora/inquora-cli/internal/core/ports/driven"
)

func TestSnippetFlattensWhitespace(t *testing.T) {
	got := Snippet("a\tb\n\n  c", 100)
	assert.Equal(t, "a b c", got)
}

func TestSnippetTruncatesWithEllipsis(t *testing.T) {
	got := Snippet(strings.Repeat("x", 50), 10)
	assert.Equal(t, strings.Repeat("x", 10)+" ...", got)
}

func TestSnippetTruncatesOnRuneBoundary(t *testing.T) {
	got := Snippet("ééééé", 3)
	assert.Equal(t, "ééé ...", got)
	assert.True(t, utf8.ValidString(got))
}

func TestSnippetMultiByteWithinLimitUnchanged(t *testing.T) {
	// Five runes, ten bytes: a byte-counting limit would truncate here.
	got := Snippet("ééééé", 5)
	assert.Equal(t, "ééééé", got)
}

func TestSnippetShortTextUnchanged(t *testing.T) {
	got := Snippet("short", 10)
	assert.Equal(t, "short", got)
}

type stubTool struct {
	name string
	tag  domain.ToolTag
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Tag() domain.ToolTag { return s.tag }
func (s *stubTool) Retrieve(context.Context, string, Options) ([]domain.Evidence, error) {
	return nil, nil
}

func TestSetPreservesRegistrationOrder(t *testing.T) {
	a := &stubTool{name: "a", tag: domain.TagWeb}
	b := &stubTool{name: "b", tag: domain.TagAcademic}
	c := &stubTool{name: "c", tag: domain.TagFastFactual}

	set := NewSet(a, b, c)

	all := set.All()
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Name())
	assert.Equal(t, "b", all[1].Name())
	assert.Equal(t, "c", all[2].Name())
}

func TestSetDuplicateTagReplacesInPlace(t *testing.T) {
	a := &stubTool{name: "old-web", tag: domain.TagWeb}
	b := &stubTool{name: "academic", tag: domain.TagAcademic}
	set := NewSet(a, b)

	set.Add(&stubTool{name: "new-web", tag: domain.TagWeb})

	require.Equal(t, 2, set.Len())
	all := set.All()
	assert.Equal(t, "new-web", all[0].Name())
	assert.Equal(t, "academic", all[1].Name())

	tool, ok := set.ByTag(domain.TagWeb)
	require.True(t, ok)
	assert.Equal(t, "new-web", tool.Name())
}

func TestSetByTagMissing(t *testing.T) {
	set := NewSet()
	_, ok := set.ByTag(domain.TagWeb)
	assert.False(t, ok)
}

type mockFetcher struct {
	snippets []driven.Snippet
	err      error
	calls    int
}

func (m *mockFetcher) Name() string { return "mock" }

func (m *mockFetcher) Fetch(_ context.Context, _ string, _ int) ([]driven.Snippet, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.snippets, nil
}

func TestFetcherToolShapesEvidence(t *testing.T) {
	fetcher := &mockFetcher{snippets: []driven.Snippet{
		{Title: "First", Text: "some   spaced\ttext", Score: 0.9, SourceURL: "https://example.com/1"},
		{Title: "Untitled link", Text: "plain", Score: 0.5},
	}}
	tool := NewFetcherTool("web_search", domain.TagWeb, fetcher)

	evidence, err := tool.Retrieve(context.Background(), "query", Options{})
	require.NoError(t, err)
	require.Len(t, evidence, 2)

	assert.Equal(t, domain.TagWeb, evidence[0].Tool)
	assert.Equal(t, "some spaced text", evidence[0].Snippet)
	assert.Equal(t, "https://example.com/1", evidence[0].SourceRef)

	// Falls back to the title when the source has no URL.
	assert.Equal(t, "Untitled link", evidence[1].SourceRef)
}

func TestFetcherToolCapsResults(t *testing.T) {
	many := make([]driven.Snippet, 10)
	for i := range many {
		many[i] = driven.Snippet{Text: "x", Score: float64(10 - i)}
	}
	tool := NewFetcherTool("web_search", domain.TagWeb, &mockFetcher{snippets: many})

	evidence, err := tool.Retrieve(context.Background(), "query", Options{MaxResults: 3})
	require.NoError(t, err)
	assert.Len(t, evidence, 3)
}

func TestFetcherToolWrapsFailureAsSourceUnavailable(t *testing.T) {
	tool := NewFetcherTool("web_search", domain.TagWeb, &mockFetcher{err: errors.New("boom")})

	evidence, err := tool.Retrieve(context.Background(), "query", Options{})
	assert.Nil(t, evidence)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "web_search")
}
