package retrieval

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/inquora/inquora-cli/internal/adapters/driven/vector/flat"
	"github.com/inquora/inquora-cli/internal/chunker"
	"github.com/inquora/inquora-cli/internal/core/domain"
	"github.com/inquora/inquora-cli/internal/core/ports/driven"
	"github.com/inquora/inquora-cli/internal/logger"
)

// CorpusDocument is one pinned document of a fixed corpus.
type CorpusDocument struct {
	// Title identifies the document in provenance references.
	Title string

	// URI is the canonical location of the document.
	URI string

	// Content is the full plain text.
	Content string
}

// Ensure CorpusTool implements the interface.
var _ Tool = (*CorpusTool)(nil)

// CorpusTool retrieves from a pinned documentation corpus that is
// embedded once at build time and never mutated afterwards. It also
// advertises keyword triggers so the orchestrator can route matching
// queries to it exclusively.
type CorpusTool struct {
	name     string
	keywords []string
	docs     []CorpusDocument
	embedder driven.EmbeddingService
	split    domain.IndexOptions

	mu     sync.RWMutex
	index  *flat.Index
	chunks map[string]domain.Chunk
	uris   map[string]string
	built  bool
}

// NewCorpusTool creates a fixed-corpus tool over the given documents.
// Build must be called before the tool can serve queries.
func NewCorpusTool(name string, keywords []string, docs []CorpusDocument, embedder driven.EmbeddingService, split domain.IndexOptions) *CorpusTool {
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &CorpusTool{
		name:     name,
		keywords: lowered,
		docs:     docs,
		embedder: embedder,
		split:    split,
		chunks:   make(map[string]domain.Chunk),
		uris:     make(map[string]string),
	}
}

// Name returns the tool identifier.
func (t *CorpusTool) Name() string {
	return t.name
}

// Tag returns the static capability tag.
func (t *CorpusTool) Tag() domain.ToolTag {
	return domain.TagFixedCorpus
}

// MatchesQuery reports whether the query mentions one of the corpus
// keywords. Matching is a case-insensitive substring test.
func (t *CorpusTool) MatchesQuery(query string) bool {
	q := strings.ToLower(query)
	for _, kw := range t.keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// Build chunks and embeds every corpus document into a private index.
// It is idempotent; a second call is a no-op.
func (t *CorpusTool) Build(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.built {
		return nil
	}

	index := flat.New(t.embedder.Dimensions())
	for _, doc := range t.docs {
		docID := domain.DocumentID(doc.URI)
		chunks, err := chunker.Build(docID, doc.Content, t.split)
		if err != nil {
			return fmt.Errorf("corpus %s: chunking %s: %w", t.name, doc.Title, err)
		}
		if len(chunks) == 0 {
			continue
		}

		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Content
		}
		vectors, err := t.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("corpus %s: embedding %s: %w", t.name, doc.Title, err)
		}

		t.uris[docID] = doc.URI
		for i, c := range chunks {
			if err := index.Insert(ctx, driven.VectorEntry{
				ChunkID:    c.ID,
				DocumentID: c.DocumentID,
				Sequence:   c.Sequence,
				Vector:     vectors[i],
			}); err != nil {
				return fmt.Errorf("corpus %s: indexing %s: %w", t.name, doc.Title, err)
			}
			t.chunks[c.ID] = c
		}
	}

	t.index = index
	t.built = true
	logger.Debug("Corpus %s built: %d documents, %d chunks", t.name, len(t.docs), len(t.chunks))
	return nil
}

// Retrieve embeds the query and searches the private corpus index.
// Scope is ignored; a fixed corpus has no user documents to restrict.
func (t *CorpusTool) Retrieve(ctx context.Context, query string, opts Options) ([]domain.Evidence, error) {
	opts = opts.normalized()

	t.mu.RLock()
	built := t.built
	t.mu.RUnlock()
	if !built {
		return nil, fmt.Errorf("%w: %s: corpus not built", domain.ErrSourceUnavailable, t.name)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	vec, err := t.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: query embedding: %v", domain.ErrSourceUnavailable, t.name, err)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	hits, err := t.index.Search(ctx, vec, opts.MaxResults, domain.Scope{})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrSourceUnavailable, t.name, err)
	}

	evidence := make([]domain.Evidence, 0, len(hits))
	for _, hit := range hits {
		chunk, ok := t.chunks[hit.ChunkID]
		if !ok {
			continue
		}
		evidence = append(evidence, domain.Evidence{
			Tool:          domain.TagFixedCorpus,
			Snippet:       Snippet(chunk.Content, opts.SnippetLimit),
			Score:         hit.Similarity,
			DocumentID:    hit.DocumentID,
			ChunkSequence: hit.Sequence,
			SourceRef:     t.uris[hit.DocumentID],
		})
	}
	return evidence, nil
}
