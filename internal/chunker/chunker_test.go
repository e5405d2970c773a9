package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inquora/inquora-cli/internal/core/domain"
)

func TestSplitRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -1, 0},
		{"negative overlap", 10, -1},
		{"overlap equals size", 10, 10},
		{"overlap exceeds size", 10, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split("some text", tt.size, tt.overlap)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
		})
	}
}

func TestSplitEmptyText(t *testing.T) {
	spans, err := Split("", 100, 20)
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestSplitSingleChunk(t *testing.T) {
	spans, err := Split("short", 100, 20)
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "short", spans[0].Text)
	assert.Equal(t, 0, spans[0].Start)
	assert.Equal(t, 5, spans[0].End)
}

func TestSplitAdjacentSpansShareExactOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10) // 100 chars
	spans, err := Split(text, 30, 10)
	require.NoError(t, err)
	require.Greater(t, len(spans), 1)

	for i := 1; i < len(spans); i++ {
		prev, cur := spans[i-1], spans[i]
		assert.Equal(t, prev.End-10, cur.Start, "span %d must start overlap chars before previous end", i)
		tail := prev.Text[len(prev.Text)-10:]
		head := cur.Text[:10]
		assert.Equal(t, tail, head, "span %d overlap content mismatch", i)
	}
}

func TestSplitReconstructsOriginal(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
	}{
		{"exact multiple", strings.Repeat("x", 120), 40, 10},
		{"short tail", strings.Repeat("y", 95), 30, 5},
		{"no overlap", strings.Repeat("z", 50), 10, 0},
		{"unicode", strings.Repeat("héllo wörld ", 20), 25, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans, err := Split(tt.text, tt.size, tt.overlap)
			require.NoError(t, err)

			var b strings.Builder
			for i, span := range spans {
				runes := []rune(span.Text)
				if i == 0 {
					b.WriteString(span.Text)
				} else {
					b.WriteString(string(runes[tt.overlap:]))
				}
			}
			assert.Equal(t, tt.text, b.String())
		})
	}
}

func TestSplitCountMatchesFormula(t *testing.T) {
	tests := []struct {
		length  int
		size    int
		overlap int
	}{
		{100, 30, 10},
		{300, 100, 20},
		{100, 100, 0},
		{101, 100, 20},
		{1000, 120, 30},
	}

	for _, tt := range tests {
		text := strings.Repeat("a", tt.length)
		spans, err := Split(text, tt.size, tt.overlap)
		require.NoError(t, err)
		assert.Equal(t, Count(tt.length, tt.size, tt.overlap), len(spans),
			"length=%d size=%d overlap=%d", tt.length, tt.size, tt.overlap)
	}
}

func TestSplitFinalChunkMayBeShorter(t *testing.T) {
	text := strings.Repeat("a", 105)
	spans, err := Split(text, 50, 10)
	require.NoError(t, err)

	for i, span := range spans[:len(spans)-1] {
		assert.Len(t, span.Text, 50, "span %d should be full size", i)
	}
	last := spans[len(spans)-1]
	assert.LessOrEqual(t, len(last.Text), 50)
	assert.Equal(t, 105, last.End)
}

func TestBuildAssignsSequenceAndOwnership(t *testing.T) {
	opts := domain.IndexOptions{ChunkSize: 20, ChunkOverlap: 5, SimilarityTopK: 4, ToolTimeout: 1, MaxConcurrency: 1}
	chunks, err := Build("doc-1", strings.Repeat("m", 60), opts)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	ids := make(map[string]bool)
	for i, c := range chunks {
		assert.Equal(t, "doc-1", c.DocumentID)
		assert.Equal(t, i, c.Sequence)
		assert.NotEmpty(t, c.ID)
		assert.False(t, ids[c.ID], "chunk ids must be unique")
		ids[c.ID] = true
	}
}

func TestBuildFreshIDsEachCall(t *testing.T) {
	opts := domain.DefaultIndexOptions()
	a, err := Build("doc-1", "same content", opts)
	require.NoError(t, err)
	b, err := Build("doc-1", "same content", opts)
	require.NoError(t, err)
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.NotEqual(t, a[0].ID, b[0].ID)
	assert.Equal(t, a[0].Content, b[0].Content)
}
