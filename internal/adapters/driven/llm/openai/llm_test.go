package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inquora/inquora-cli/internal/core/domain"
)

func newTestAnswerer(t *testing.T, handler http.HandlerFunc) (*Answerer, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	a, err := New(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	return a, server
}

func completionWith(text string) string {
	return `{"choices":[{"message":{"content":"` + text + `"}}]}`
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestSynthesizeBuildsEvidencePrompt(t *testing.T) {
	var captured chatCompletionRequest
	a, _ := newTestAnswerer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(completionWith("grounded answer")))
	})

	evidence := []domain.Evidence{
		{Tool: domain.TagWeb, Snippet: "snippet one", SourceRef: "https://example.com"},
		{Tool: domain.TagDocumentIndex, Snippet: "snippet two", DocumentID: "doc-a"},
	}
	text, err := a.Synthesize(context.Background(), "what is this?", evidence, nil)
	require.NoError(t, err)
	assert.Equal(t, "grounded answer", text)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)

	prompt := captured.Messages[1].Content
	assert.Contains(t, prompt, "Question: what is this?")
	assert.Contains(t, prompt, "[1] (web, https://example.com) snippet one")
	assert.Contains(t, prompt, "[2] (document-index, document-index) snippet two")
}

func TestSynthesizeNoEvidenceNote(t *testing.T) {
	var captured chatCompletionRequest
	a, _ := newTestAnswerer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(completionWith("nothing found")))
	})

	_, err := a.Synthesize(context.Background(), "obscure question", nil, nil)
	require.NoError(t, err)

	prompt := captured.Messages[len(captured.Messages)-1].Content
	assert.Contains(t, prompt, "No evidence could be retrieved")
	assert.NotContains(t, prompt, "Evidence:")
}

func TestSynthesizeIncludesHistory(t *testing.T) {
	var captured chatCompletionRequest
	a, _ := newTestAnswerer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(completionWith("follow-up answer")))
	})

	history := []domain.Turn{{Query: "first question", Response: "first answer"}}
	_, err := a.Synthesize(context.Background(), "and then?", nil, history)
	require.NoError(t, err)

	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "first question", captured.Messages[1].Content)
	assert.Equal(t, "assistant", captured.Messages[2].Role)
	assert.Equal(t, "first answer", captured.Messages[2].Content)
}

func TestSynthesizeAPIError(t *testing.T) {
	a, _ := newTestAnswerer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"requests"}}`))
	})

	_, err := a.Synthesize(context.Background(), "q", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit exceeded")
}
