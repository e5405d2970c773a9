package extractors

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/inquora/inquora-cli/internal/core/domain"
	"github.com/inquora/inquora-cli/internal/core/ports/driven"
)

// Ensure Markdown implements the interface.
var _ driven.Extractor = (*Markdown)(nil)

// Markdown handles Markdown documents.
type Markdown struct{}

// NewMarkdown creates a new Markdown extractor.
func NewMarkdown() *Markdown {
	return &Markdown{}
}

// Formats returns the formats this extractor handles.
func (e *Markdown) Formats() []domain.Format {
	return []domain.Format{domain.FormatMarkdown}
}

// Pre-compiled regular expressions for markdown stripping.
var (
	mdCodeBlock    = regexp.MustCompile("(?s)```[^`]*```")
	mdInlineCode   = regexp.MustCompile("`[^`]+`")
	mdImages       = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	mdLinks        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeadings     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdBlockquote   = regexp.MustCompile(`(?m)^>\s*`)
	mdHorizRule    = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	mdListMarkers  = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	mdNumberedList = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	mdMultiNewline = regexp.MustCompile(`\n{3,}`)
)

// Extract converts markdown to plain text by stripping formatting.
// This is a simplified implementation that handles common cases.
func (e *Markdown) Extract(_ context.Context, content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", fmt.Errorf("%w: not valid UTF-8", domain.ErrCorruptInput)
	}

	text := string(content)
	text = mdCodeBlock.ReplaceAllString(text, "")
	text = mdInlineCode.ReplaceAllString(text, "")
	text = mdImages.ReplaceAllString(text, "")
	text = mdLinks.ReplaceAllString(text, "$1")
	text = mdHeadings.ReplaceAllString(text, "")

	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "__", "")
	text = strings.ReplaceAll(text, "*", "")

	text = mdBlockquote.ReplaceAllString(text, "")
	text = mdHorizRule.ReplaceAllString(text, "")
	text = mdListMarkers.ReplaceAllString(text, "")
	text = mdNumberedList.ReplaceAllString(text, "")
	text = mdMultiNewline.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text), nil
}
