package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inquora/inquora-cli/internal/adapters/driven/storage/memory"
	"github.com/inquora/inquora-cli/internal/adapters/driven/vector/flat"
	"github.com/inquora/inquora-cli/internal/core/domain"
	"github.com/inquora/inquora-cli/internal/core/ports/driven"
	"github.com/inquora/inquora-cli/internal/extractors"
)

type mockEmbedder struct {
	dims     int
	batchErr error
}

func (m *mockEmbedder) vectorFor(text string) []float32 {
	vec := make([]float32, m.dims)
	if len(text) > 0 {
		vec[int(text[0])%m.dims] = 1
	}
	return vec
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return m.vectorFor(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vectorFor(text)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int   { return m.dims }
func (m *mockEmbedder) ModelName() string { return "mock-embedder" }
func (m *mockEmbedder) Close() error      { return nil }

type mockLoader struct {
	content map[string]string
	failing map[string]error
}

func (m *mockLoader) Load(_ context.Context, uri string, _ domain.SourceKind) ([]byte, domain.Format, error) {
	if err, ok := m.failing[uri]; ok {
		return nil, "", err
	}
	text, ok := m.content[uri]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrSourceUnavailable, uri)
	}
	return []byte(text), domain.FormatPlaintext, nil
}

type mockSnapshotStore struct {
	saved *driven.Snapshot
}

func (m *mockSnapshotStore) SaveSnapshot(_ context.Context, snap *driven.Snapshot) error {
	m.saved = snap
	return nil
}

func (m *mockSnapshotStore) LoadSnapshot(_ context.Context) (*driven.Snapshot, error) {
	if m.saved == nil {
		return nil, domain.ErrNotFound
	}
	return m.saved, nil
}

func (m *mockSnapshotStore) Close() error { return nil }

func testIngestor(loader *mockLoader, snapshots driven.SnapshotStore) *Ingestor {
	opts := domain.DefaultIndexOptions()
	opts.ChunkSize = 40
	opts.ChunkOverlap = 10
	return NewIngestor(
		NewRegistry(memory.NewRegistryStore()),
		loader,
		extractors.NewDefaultRegistry(),
		&mockEmbedder{dims: 4},
		func(dims int) driven.VectorIndex { return flat.New(dims) },
		snapshots,
		opts,
	)
}

func TestIndexBuildsGeneration(t *testing.T) {
	loader := &mockLoader{content: map[string]string{
		"/docs/a.txt": "alpha alpha alpha alpha alpha alpha alpha alpha alpha",
		"/docs/b.txt": "beta beta beta beta beta beta beta beta beta beta",
	}}
	ing := testIngestor(loader, nil)
	ctx := context.Background()

	report, err := ing.Index(ctx, domain.IndexRequest{Paths: []string{"/docs/a.txt", "/docs/b.txt"}})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), report.Generation)
	assert.Equal(t, 2, report.Indexed())
	assert.Zero(t, report.Failed())
	assert.Equal(t, uint64(1), ing.Generation())

	snap, ok := ing.Current()
	require.True(t, ok)
	assert.Equal(t, 2, snap.DocumentCount())
	assert.Equal(t, "/docs/a.txt", snap.DocumentURI(domain.DocumentID("/docs/a.txt")))

	docs, err := ing.Documents(ctx, domain.StatusIndexed)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	for _, doc := range docs {
		assert.Equal(t, uint64(1), doc.Generation)
		assert.Equal(t, domain.FormatPlaintext, doc.Format)
		assert.NotZero(t, doc.ByteSize)
	}
}

func TestIndexSelectiveReindexNarrowsScope(t *testing.T) {
	loader := &mockLoader{content: map[string]string{
		"/docs/a.txt": "alpha content about chunking",
		"/docs/b.txt": "beta content about embedding",
	}}
	ing := testIngestor(loader, nil)
	ctx := context.Background()

	_, err := ing.Index(ctx, domain.IndexRequest{Paths: []string{"/docs/a.txt", "/docs/b.txt"}})
	require.NoError(t, err)

	report, err := ing.Index(ctx, domain.IndexRequest{Paths: []string{"/docs/a.txt"}})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), report.Generation)

	snap, ok := ing.Current()
	require.True(t, ok)
	assert.Equal(t, 1, snap.DocumentCount())

	// The dropped document is absent from the new generation even for
	// an unrestricted search.
	hits, err := snap.Search(ctx, []float32{0, 1, 1, 1}, 10, domain.Scope{})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	for _, hit := range hits {
		assert.Equal(t, domain.DocumentID("/docs/a.txt"), hit.DocumentID)
	}
}

func TestIndexIsolatesPerDocumentFailure(t *testing.T) {
	loader := &mockLoader{
		content: map[string]string{"/docs/good.txt": "good content here"},
		failing: map[string]error{"/docs/bad.txt": errors.New("disk error")},
	}
	ing := testIngestor(loader, nil)
	ctx := context.Background()

	report, err := ing.Index(ctx, domain.IndexRequest{Paths: []string{"/docs/bad.txt", "/docs/good.txt"}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Indexed())
	assert.Equal(t, 1, report.Failed())

	require.Len(t, report.Documents, 2)
	assert.Equal(t, domain.StatusFailed, report.Documents[0].Status)
	assert.Contains(t, report.Documents[0].FailureReason, "disk error")
	assert.Equal(t, domain.StatusIndexed, report.Documents[1].Status)

	failed, err := ing.Documents(ctx, domain.StatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, domain.DocumentID("/docs/bad.txt"), failed[0].ID)
}

func TestIndexRejectsInvalidOptions(t *testing.T) {
	ing := testIngestor(&mockLoader{}, nil)

	_, err := ing.Index(context.Background(), domain.IndexRequest{
		Paths:   []string{"/docs/a.txt"},
		Options: domain.IndexOptions{ChunkSize: 100, ChunkOverlap: 100},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Zero(t, ing.Generation())
}

func TestIndexRejectsEmptyRequest(t *testing.T) {
	ing := testIngestor(&mockLoader{}, nil)

	_, err := ing.Index(context.Background(), domain.IndexRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndexDimensionMismatchAbortsBuild(t *testing.T) {
	loader := &mockLoader{content: map[string]string{"/docs/a.txt": "alpha content"}}
	ing := testIngestor(loader, nil)
	ing.embedder = &mockEmbedder{dims: 4, batchErr: fmt.Errorf("%w: got 8, want 4", domain.ErrDimensionMismatch)}

	_, err := ing.Index(context.Background(), domain.IndexRequest{Paths: []string{"/docs/a.txt"}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, ok := ing.Current()
	assert.False(t, ok)
	assert.Zero(t, ing.Generation())
}

type failingIndex struct {
	driven.VectorIndex
	insertErr error
}

func (f *failingIndex) Insert(context.Context, driven.VectorEntry) error { return f.insertErr }

func TestIndexInsertFailureAbortsAndMarksFailed(t *testing.T) {
	loader := &mockLoader{content: map[string]string{"/docs/a.txt": "alpha content"}}
	ing := testIngestor(loader, nil)
	ing.newIndex = func(dims int) driven.VectorIndex {
		return &failingIndex{VectorIndex: flat.New(dims), insertErr: errors.New("index full")}
	}

	_, err := ing.Index(context.Background(), domain.IndexRequest{Paths: []string{"/docs/a.txt"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index full")

	// The aborted build must not leave the document parked in the
	// indexing state.
	doc, err := ing.registry.Get(context.Background(), domain.DocumentID("/docs/a.txt"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, doc.Status)
	assert.Contains(t, doc.FailureReason, "generation aborted")

	_, ok := ing.Current()
	assert.False(t, ok)
}

func TestIndexEmbeddingOutageIsolatesDocument(t *testing.T) {
	loader := &mockLoader{content: map[string]string{"/docs/a.txt": "alpha content"}}
	ing := testIngestor(loader, nil)
	ing.embedder = &mockEmbedder{dims: 4, batchErr: fmt.Errorf("%w: retries exhausted", domain.ErrEmbeddingUnavailable)}

	report, err := ing.Index(context.Background(), domain.IndexRequest{Paths: []string{"/docs/a.txt"}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, uint64(1), ing.Generation())
}

func TestIndexDeduplicatesRequestedURIs(t *testing.T) {
	loader := &mockLoader{content: map[string]string{"/docs/a.txt": "alpha content"}}
	ing := testIngestor(loader, nil)

	report, err := ing.Index(context.Background(), domain.IndexRequest{
		Paths: []string{"/docs/a.txt", "/docs/a.txt"},
	})
	require.NoError(t, err)
	assert.Len(t, report.Documents, 1)
}

func TestIndexPersistsAndRestoresSnapshot(t *testing.T) {
	loader := &mockLoader{content: map[string]string{"/docs/a.txt": "alpha content worth keeping"}}
	store := &mockSnapshotStore{}
	ing := testIngestor(loader, store)
	ctx := context.Background()

	_, err := ing.Index(ctx, domain.IndexRequest{Paths: []string{"/docs/a.txt"}})
	require.NoError(t, err)
	require.NotNil(t, store.saved)
	assert.Equal(t, uint64(1), store.saved.Generation)
	assert.NotEmpty(t, store.saved.Chunks)

	// A fresh service restores the persisted generation without
	// touching the loader or the embedder.
	restored := testIngestor(&mockLoader{}, store)
	require.NoError(t, restored.Restore(ctx))
	assert.Equal(t, uint64(1), restored.Generation())

	snap, ok := restored.Current()
	require.True(t, ok)
	assert.Equal(t, 1, snap.DocumentCount())

	// The next build continues the generation sequence.
	restored.loader = loader
	report, err := restored.Index(ctx, domain.IndexRequest{Paths: []string{"/docs/a.txt"}})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), report.Generation)
}

func TestRestoreWithoutSnapshotStartsEmpty(t *testing.T) {
	ing := testIngestor(&mockLoader{}, &mockSnapshotStore{})

	require.NoError(t, ing.Restore(context.Background()))
	_, ok := ing.Current()
	assert.False(t, ok)
}
