package extractors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inquora/inquora-cli/internal/core/domain"
)

func TestRegistryDispatchesByFormat(t *testing.T) {
	r := NewDefaultRegistry()

	text, err := r.Extract(context.Background(), domain.FormatPlaintext, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestRegistryUnsupportedFormat(t *testing.T) {
	r := NewDefaultRegistry()

	_, err := r.Extract(context.Background(), domain.Format("pdf"), []byte("%PDF-1.4"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedFormat))
}

func TestRegistrySupportedFormats(t *testing.T) {
	r := NewDefaultRegistry()
	formats := r.SupportedFormats()
	assert.Equal(t, []domain.Format{domain.FormatHTML, domain.FormatMarkdown, domain.FormatPlaintext}, formats)
}

func TestPlaintextRejectsInvalidUTF8(t *testing.T) {
	e := NewPlaintext()
	_, err := e.Extract(context.Background(), []byte{0xff, 0xfe, 0x00})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptInput))
}

func TestPlaintextNormalisesLineEndings(t *testing.T) {
	e := NewPlaintext()
	text, err := e.Extract(context.Background(), []byte("a\r\nb\rc"))
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc", text)
}

func TestMarkdownStripsFormatting(t *testing.T) {
	e := NewMarkdown()
	input := "# Title\n\nSome **bold** text with a [link](https://example.com).\n\n- item one\n- item two\n\n```go\ncode here\n```\n"
	text, err := e.Extract(context.Background(), []byte(input))
	require.NoError(t, err)

	assert.Contains(t, text, "Title")
	assert.Contains(t, text, "bold")
	assert.Contains(t, text, "link")
	assert.Contains(t, text, "item one")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "](")
	assert.NotContains(t, text, "code here")
	assert.NotContains(t, text, "# ")
}

func TestHTMLStripsMarkup(t *testing.T) {
	e := NewHTML()
	input := `<html><head><title>Page</title><style>body{}</style></head>
<body><h1>Heading</h1><p>First &amp; second.</p><script>alert(1)</script></body></html>`
	text, err := e.Extract(context.Background(), []byte(input))
	require.NoError(t, err)

	assert.Contains(t, text, "Heading")
	assert.Contains(t, text, "First & second.")
	assert.NotContains(t, text, "<p>")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "body{}")
}

func TestHTMLCorruptInput(t *testing.T) {
	e := NewHTML()
	_, err := e.Extract(context.Background(), []byte{0xc3, 0x28})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptInput))
}
