package driving

import (
	"context"

	"github.com/inquora/inquora-cli/internal/core/domain"
)

// AskService answers natural-language questions by orchestrating
// retrieval tools and delegating synthesis.
type AskService interface {
	// Ask routes the query to one or more retrieval tools, aggregates
	// their evidence and returns a synthesized answer. A query with no
	// retrievable evidence still yields an answer marked NoEvidence;
	// only synthesis failure or bad input returns an error.
	Ask(ctx context.Context, query string, opts domain.AskOptions) (*domain.Answer, error)

	// History returns the conversation turns so far.
	History() []domain.Turn

	// Reset clears the conversation context.
	Reset()
}
