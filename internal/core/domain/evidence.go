package domain

// ToolTag is the static capability tag a retrieval tool declares.
// The orchestrator selects tools by tag, never by name.
type ToolTag string

const (
	// TagDocumentIndex retrieves from the user's indexed document corpus.
	TagDocumentIndex ToolTag = "document-index"

	// TagFastFactual is a quick encyclopedic lookup for short factual queries.
	TagFastFactual ToolTag = "fast-factual"

	// TagDeepContextual is a deep encyclopedic search for multi-part queries.
	TagDeepContextual ToolTag = "deep-contextual"

	// TagAcademic searches an academic paper repository.
	TagAcademic ToolTag = "academic"

	// TagWeb searches the open web.
	TagWeb ToolTag = "web"

	// TagFixedCorpus retrieves from a pinned technical documentation corpus.
	TagFixedCorpus ToolTag = "fixed-corpus"
)

// Evidence is a scored snippet returned by a retrieval tool.
// Produced per query, never persisted.
type Evidence struct {
	// Tool is the capability tag of the tool that produced this item.
	Tool ToolTag

	// Snippet is the whitespace-flattened, length-bounded text.
	Snippet string

	// Score is the relevance score assigned by the tool.
	Score float64

	// DocumentID is set when the item comes from the document index.
	DocumentID string

	// ChunkSequence is the chunk ordinal when DocumentID is set.
	ChunkSequence int

	// SourceRef is a human-readable provenance reference (URL or title).
	SourceRef string
}

// Scope restricts document-index retrieval to a set of document ids.
// The zero value is unrestricted. An explicitly restricted scope with no
// ids allows nothing; it never widens to the full corpus.
type Scope struct {
	restricted bool
	allowed    map[string]struct{}
}

// ScopeTo builds a restricted scope over the given document ids.
// ScopeTo() with no ids is a valid scope that matches no document.
func ScopeTo(ids ...string) Scope {
	allowed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}
	return Scope{restricted: true, allowed: allowed}
}

// Unrestricted reports whether the scope allows every document.
func (s Scope) Unrestricted() bool {
	return !s.restricted
}

// Allows reports whether the scope admits the given document id.
func (s Scope) Allows(id string) bool {
	if !s.restricted {
		return true
	}
	_, ok := s.allowed[id]
	return ok
}

// Size returns the number of admitted ids, or -1 when unrestricted.
func (s Scope) Size() int {
	if !s.restricted {
		return -1
	}
	return len(s.allowed)
}
