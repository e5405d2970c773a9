package driven

import (
	"context"

	"github.com/inquora/inquora-cli/internal/core/domain"
)

// Answerer synthesizes a prose answer from retrieved evidence.
// The language model behind it is opaque to the core.
type Answerer interface {
	// Synthesize produces an answer grounded in the evidence. When the
	// evidence list is empty the answerer is told so explicitly and must
	// still produce a response admitting the missing evidence.
	Synthesize(ctx context.Context, query string, evidence []domain.Evidence, history []domain.Turn) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
