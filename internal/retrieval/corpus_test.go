package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inquora/inquora-cli/internal/core/domain"
)

func testCorpusTool(embedder *mockEmbedder) *CorpusTool {
	docs := []CorpusDocument{
		{Title: "Tracing guide", URI: "https://docs.example.com/tracing", Content: "alpha tracing walkthrough"},
		{Title: "Eval guide", URI: "https://docs.example.com/evals", Content: "beta evaluation walkthrough"},
	}
	opts := domain.DefaultIndexOptions()
	return NewCorpusTool("product_docs", []string{"TraceKit", "trace kit"}, docs, embedder, opts)
}

func TestCorpusToolMatchesQuery(t *testing.T) {
	tool := testCorpusTool(&mockEmbedder{dims: 4})

	assert.True(t, tool.MatchesQuery("how do I set up TRACEKIT?"))
	assert.True(t, tool.MatchesQuery("pricing for the trace kit service"))
	assert.False(t, tool.MatchesQuery("how tall is the Eiffel Tower?"))
}

func TestCorpusToolRetrieveBeforeBuild(t *testing.T) {
	tool := testCorpusTool(&mockEmbedder{dims: 4})

	evidence, err := tool.Retrieve(context.Background(), "alpha", Options{})
	assert.Nil(t, evidence)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestCorpusToolBuildAndRetrieve(t *testing.T) {
	tool := testCorpusTool(&mockEmbedder{dims: 4})
	require.NoError(t, tool.Build(context.Background()))

	evidence, err := tool.Retrieve(context.Background(), "alpha setup steps", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, evidence)

	top := evidence[0]
	assert.Equal(t, domain.TagFixedCorpus, top.Tool)
	assert.Equal(t, "alpha tracing walkthrough", top.Snippet)
	assert.Equal(t, "https://docs.example.com/tracing", top.SourceRef)
	assert.InDelta(t, 1.0, top.Score, 1e-6)
}

func TestCorpusToolBuildIsIdempotent(t *testing.T) {
	embedder := &mockEmbedder{dims: 4}
	tool := testCorpusTool(embedder)

	require.NoError(t, tool.Build(context.Background()))
	callsAfterFirst := embedder.calls
	require.NoError(t, tool.Build(context.Background()))
	assert.Equal(t, callsAfterFirst, embedder.calls)
}
