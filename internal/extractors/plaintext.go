package extractors

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/inquora/inquora-cli/internal/core/domain"
	"github.com/inquora/inquora-cli/internal/core/ports/driven"
)

// Ensure Plaintext implements the interface.
var _ driven.Extractor = (*Plaintext)(nil)

// Plaintext handles plain text documents.
type Plaintext struct{}

// NewPlaintext creates a new plain text extractor.
func NewPlaintext() *Plaintext {
	return &Plaintext{}
}

// Formats returns the formats this extractor handles.
func (e *Plaintext) Formats() []domain.Format {
	return []domain.Format{domain.FormatPlaintext}
}

// Extract validates the bytes are UTF-8 text and normalises line endings.
func (e *Plaintext) Extract(_ context.Context, content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", fmt.Errorf("%w: not valid UTF-8", domain.ErrCorruptInput)
	}

	text := string(content)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text, nil
}
