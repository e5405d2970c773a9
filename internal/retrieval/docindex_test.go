package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inquora/inquora-cli/internal/core/domain"
	"github.com/inquora/inquora-cli/internal/core/ports/driven"
)

type mockEmbedder struct {
	dims  int
	err   error
	calls int
}

// vectorFor produces a deterministic embedding keyed on the first
// letter so tests can predict similarity rankings.
func (m *mockEmbedder) vectorFor(text string) []float32 {
	vec := make([]float32, m.dims)
	if len(text) > 0 {
		vec[int(text[0])%m.dims] = 1
	}
	return vec
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int   { return m.dims }
func (m *mockEmbedder) ModelName() string { return "mock-embedder" }
func (m *mockEmbedder) Close() error      { return nil }

type mockSnapshot struct {
	generation uint64
	hits       []driven.VectorHit
	chunks     map[string]domain.Chunk
	uris       map[string]string
	searchErr  error

	lastScope domain.Scope
	lastK     int
}

func (m *mockSnapshot) Generation() uint64 { return m.generation }

func (m *mockSnapshot) Search(_ context.Context, _ []float32, k int, scope domain.Scope) ([]driven.VectorHit, error) {
	m.lastScope = scope
	m.lastK = k
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	filtered := make([]driven.VectorHit, 0, len(m.hits))
	for _, hit := range m.hits {
		if scope.Allows(hit.DocumentID) {
			filtered = append(filtered, hit)
		}
	}
	if len(filtered) > k {
		filtered = filtered[:k]
	}
	return filtered, nil
}

func (m *mockSnapshot) Chunk(id string) (domain.Chunk, bool) {
	c, ok := m.chunks[id]
	return c, ok
}

func (m *mockSnapshot) DocumentURI(id string) string { return m.uris[id] }
func (m *mockSnapshot) DocumentCount() int           { return len(m.uris) }

type mockSource struct {
	snap *mockSnapshot
}

func (m *mockSource) Current() (IndexSnapshot, bool) {
	if m.snap == nil {
		return nil, false
	}
	return m.snap, true
}

func newTestSnapshot() *mockSnapshot {
	return &mockSnapshot{
		generation: 3,
		hits: []driven.VectorHit{
			{ChunkID: "c1", DocumentID: "doc-a", Sequence: 0, Similarity: 0.91},
			{ChunkID: "c2", DocumentID: "doc-b", Sequence: 1, Similarity: 0.80},
		},
		chunks: map[string]domain.Chunk{
			"c1": {ID: "c1", DocumentID: "doc-a", Sequence: 0, Content: "alpha  content"},
			"c2": {ID: "c2", DocumentID: "doc-b", Sequence: 1, Content: "beta content"},
		},
		uris: map[string]string{
			"doc-a": "/docs/a.md",
			"doc-b": "/docs/b.md",
		},
	}
}

func TestDocIndexToolNoGeneration(t *testing.T) {
	tool := NewDocIndexTool(&mockSource{}, &mockEmbedder{dims: 4})

	evidence, err := tool.Retrieve(context.Background(), "query", Options{})
	require.NoError(t, err)
	assert.Empty(t, evidence)
}

func TestDocIndexToolEmptyScopeReturnsNothing(t *testing.T) {
	embedder := &mockEmbedder{dims: 4}
	snap := newTestSnapshot()
	tool := NewDocIndexTool(&mockSource{snap: snap}, embedder)

	evidence, err := tool.Retrieve(context.Background(), "query", Options{Scope: domain.ScopeTo()})
	require.NoError(t, err)
	assert.Empty(t, evidence)

	// The search must be skipped entirely, not run and filtered.
	assert.Zero(t, embedder.calls)
}

func TestDocIndexToolEvidenceCarriesProvenance(t *testing.T) {
	snap := newTestSnapshot()
	tool := NewDocIndexTool(&mockSource{snap: snap}, &mockEmbedder{dims: 4})

	evidence, err := tool.Retrieve(context.Background(), "query", Options{})
	require.NoError(t, err)
	require.Len(t, evidence, 2)

	assert.Equal(t, domain.TagDocumentIndex, evidence[0].Tool)
	assert.Equal(t, "doc-a", evidence[0].DocumentID)
	assert.Equal(t, 0, evidence[0].ChunkSequence)
	assert.Equal(t, "/docs/a.md", evidence[0].SourceRef)
	assert.Equal(t, "alpha content", evidence[0].Snippet)
	assert.InDelta(t, 0.91, evidence[0].Score, 1e-9)
}

func TestDocIndexToolPassesScopeThrough(t *testing.T) {
	snap := newTestSnapshot()
	tool := NewDocIndexTool(&mockSource{snap: snap}, &mockEmbedder{dims: 4})

	scope := domain.ScopeTo("doc-b")
	evidence, err := tool.Retrieve(context.Background(), "query", Options{Scope: scope})
	require.NoError(t, err)
	require.Len(t, evidence, 1)
	assert.Equal(t, "doc-b", evidence[0].DocumentID)
	assert.False(t, snap.lastScope.Unrestricted())
}

func TestDocIndexToolEmbedFailureIsSourceUnavailable(t *testing.T) {
	snap := newTestSnapshot()
	tool := NewDocIndexTool(&mockSource{snap: snap}, &mockEmbedder{dims: 4, err: errors.New("model down")})

	evidence, err := tool.Retrieve(context.Background(), "query", Options{})
	assert.Nil(t, evidence)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestDocIndexToolHonorsMaxResults(t *testing.T) {
	snap := newTestSnapshot()
	tool := NewDocIndexTool(&mockSource{snap: snap}, &mockEmbedder{dims: 4})

	_, err := tool.Retrieve(context.Background(), "query", Options{MaxResults: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, snap.lastK)
}
