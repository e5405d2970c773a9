package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/inquora/inquora-cli/internal/chunker"
	"github.com/inquora/inquora-cli/internal/core/domain"
	"github.com/inquora/inquora-cli/internal/core/ports/driven"
	"github.com/inquora/inquora-cli/internal/core/ports/driving"
	"github.com/inquora/inquora-cli/internal/logger"
	"github.com/inquora/inquora-cli/internal/retrieval"
)

// IndexFactory builds an empty vector index with the given
// dimensionality. Each generation gets a fresh index.
type IndexFactory func(dims int) driven.VectorIndex

// Ensure Ingestor implements the driving port and the snapshot source
// consumed by the document-index tool.
var (
	_ driving.IndexService     = (*Ingestor)(nil)
	_ retrieval.SnapshotSource = (*Ingestor)(nil)
)

// Ingestor builds index generations. Each Index call constructs a
// complete new generation off to the side and swaps it in atomically;
// queries in flight keep reading the generation they started on.
type Ingestor struct {
	registry   *Registry
	loader     driven.DocumentLoader
	extractors driven.ExtractorRegistry
	embedder   driven.EmbeddingService
	newIndex   IndexFactory
	snapshots  driven.SnapshotStore
	defaults   domain.IndexOptions

	current atomic.Pointer[generation]
	genSeq  atomic.Uint64
}

// generation is one immutable index build. Readers obtained it through
// the atomic pointer and never see it change.
type generation struct {
	id     uint64
	index  driven.VectorIndex
	chunks map[string]domain.Chunk
	uris   map[string]string
}

func (g *generation) Generation() uint64 { return g.id }

func (g *generation) Search(ctx context.Context, query []float32, k int, scope domain.Scope) ([]driven.VectorHit, error) {
	return g.index.Search(ctx, query, k, scope)
}

func (g *generation) Chunk(chunkID string) (domain.Chunk, bool) {
	c, ok := g.chunks[chunkID]
	return c, ok
}

func (g *generation) DocumentURI(documentID string) string {
	return g.uris[documentID]
}

func (g *generation) DocumentCount() int { return len(g.uris) }

// NewIngestor creates the ingestion service. The snapshot store may be
// nil, in which case generations live only in memory.
func NewIngestor(
	registry *Registry,
	loader driven.DocumentLoader,
	extractors driven.ExtractorRegistry,
	embedder driven.EmbeddingService,
	newIndex IndexFactory,
	snapshots driven.SnapshotStore,
	defaults domain.IndexOptions,
) *Ingestor {
	return &Ingestor{
		registry:   registry,
		loader:     loader,
		extractors: extractors,
		embedder:   embedder,
		newIndex:   newIndex,
		snapshots:  snapshots,
		defaults:   defaults,
	}
}

// Current returns the active generation snapshot.
func (s *Ingestor) Current() (retrieval.IndexSnapshot, bool) {
	gen := s.current.Load()
	if gen == nil {
		return nil, false
	}
	return gen, true
}

// Generation returns the active generation id, zero before the first
// successful build.
func (s *Ingestor) Generation() uint64 {
	gen := s.current.Load()
	if gen == nil {
		return 0
	}
	return gen.id
}

// Documents lists registered documents, optionally filtered by status.
func (s *Ingestor) Documents(ctx context.Context, status domain.IngestStatus) ([]domain.Document, error) {
	return s.registry.List(ctx, status)
}

// docBuild is the outcome of processing one document for a generation.
type docBuild struct {
	report domain.DocumentReport
	chunks []domain.Chunk
	fatal  error
}

// Index ingests the requested documents into a fresh generation and
// makes it current. Per-document failures land in the report; invalid
// configuration and embedding dimension mismatches abort the build and
// leave the previous generation active.
func (s *Ingestor) Index(ctx context.Context, req domain.IndexRequest) (*domain.IndexReport, error) {
	opts := s.effectiveOptions(req.Options)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	type source struct {
		uri  string
		kind domain.SourceKind
	}
	sources := make([]source, 0, len(req.Paths)+len(req.URLs))
	for _, p := range req.Paths {
		sources = append(sources, source{uri: p, kind: domain.SourceLocalFile})
	}
	for _, u := range req.URLs {
		sources = append(sources, source{uri: u, kind: domain.SourceRemoteURL})
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no documents requested", domain.ErrInvalidInput)
	}

	// Register everything up front, dropping duplicate URIs while
	// preserving request order.
	seen := make(map[string]struct{}, len(sources))
	docs := make([]*domain.Document, 0, len(sources))
	for _, src := range sources {
		doc, err := s.registry.Register(ctx, src.uri, src.kind)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[doc.ID]; dup {
			continue
		}
		seen[doc.ID] = struct{}{}
		docs = append(docs, doc)
	}

	genID := s.genSeq.Add(1)
	logger.Info("Building index generation %d from %d documents", genID, len(docs))

	builds := make([]docBuild, len(docs))
	sem := make(chan struct{}, opts.MaxConcurrency)
	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		go func(i int, doc *domain.Document) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			builds[i] = s.buildDocument(ctx, doc, opts)
		}(i, doc)
	}
	wg.Wait()

	report := &domain.IndexReport{Generation: genID}
	for _, b := range builds {
		if b.fatal != nil {
			// The whole build is poisoned; the previous generation
			// stays active and nothing is marked indexed.
			s.failRemaining(ctx, builds, b.fatal)
			return nil, b.fatal
		}
	}

	index := s.newIndex(s.embedder.Dimensions())
	gen := &generation{
		id:     genID,
		index:  index,
		chunks: make(map[string]domain.Chunk),
		uris:   make(map[string]string),
	}
	for i, b := range builds {
		report.Documents = append(report.Documents, b.report)
		if b.report.Status != domain.StatusIndexed {
			continue
		}
		doc := docs[i]
		gen.uris[doc.ID] = doc.URI
		for _, chunk := range b.chunks {
			if err := index.Insert(ctx, driven.VectorEntry{
				ChunkID:    chunk.ID,
				DocumentID: chunk.DocumentID,
				Sequence:   chunk.Sequence,
				Vector:     chunk.Embedding,
			}); err != nil {
				err = fmt.Errorf("building generation %d: %w", genID, err)
				s.failRemaining(ctx, builds, err)
				return nil, err
			}
			gen.chunks[chunk.ID] = chunk
		}
	}

	s.current.Store(gen)

	// Registry updates happen after the swap so Documents never shows a
	// generation id that is not yet live.
	for i, b := range builds {
		if b.report.Status == domain.StatusIndexed {
			if err := s.registry.MarkIndexed(ctx, docs[i].ID, genID, docs[i].Format, docs[i].ByteSize); err != nil {
				logger.Warn("Recording indexed state for %s: %v", docs[i].ID, err)
			}
		}
	}

	s.persistSnapshot(ctx, gen)

	logger.Info("Generation %d live: %d indexed, %d failed, %d chunks",
		genID, report.Indexed(), report.Failed(), len(gen.chunks))
	return report, nil
}

// buildDocument runs the load, extract, chunk and embed pipeline for a
// single document. Non-fatal failures are folded into the report.
func (s *Ingestor) buildDocument(ctx context.Context, doc *domain.Document, opts domain.IndexOptions) docBuild {
	report := domain.DocumentReport{DocumentID: doc.ID, URI: doc.URI}

	fail := func(err error) docBuild {
		report.Status = domain.StatusFailed
		report.FailureReason = err.Error()
		if mErr := s.registry.MarkFailed(ctx, doc.ID, err.Error()); mErr != nil {
			logger.Warn("Recording failure for %s: %v", doc.ID, mErr)
		}
		logger.Warn("Document %s failed: %v", doc.URI, err)
		return docBuild{report: report}
	}

	if err := s.registry.MarkIndexing(ctx, doc.ID); err != nil {
		report.Status = domain.StatusFailed
		report.FailureReason = err.Error()
		return docBuild{report: report}
	}

	raw, format, err := s.loader.Load(ctx, doc.URI, doc.SourceKind)
	if err != nil {
		return fail(fmt.Errorf("loading: %w", err))
	}
	doc.Format = format
	doc.ByteSize = len(raw)

	text, err := s.extractors.Extract(ctx, format, raw)
	if err != nil {
		return fail(fmt.Errorf("extracting: %w", err))
	}

	chunks, err := chunker.Build(doc.ID, text, opts)
	if err != nil {
		return fail(err)
	}
	if len(chunks) == 0 {
		return fail(fmt.Errorf("%w: document has no extractable text", domain.ErrCorruptInput))
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			b := fail(fmt.Errorf("embedding: %w", err))
			b.fatal = fmt.Errorf("document %s: %w", doc.URI, err)
			return b
		}
		return fail(fmt.Errorf("embedding: %w", err))
	}
	if len(vectors) != len(chunks) {
		return fail(fmt.Errorf("embedding: got %d vectors for %d chunks", len(vectors), len(chunks)))
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	report.Status = domain.StatusIndexed
	report.Chunks = len(chunks)
	return docBuild{report: report, chunks: chunks}
}

// failRemaining marks every in-flight document failed after a fatal
// build error so none is left stuck in the indexing state.
func (s *Ingestor) failRemaining(ctx context.Context, builds []docBuild, cause error) {
	for _, b := range builds {
		if b.report.Status != domain.StatusIndexed {
			continue
		}
		if err := s.registry.MarkFailed(ctx, b.report.DocumentID, fmt.Sprintf("generation aborted: %v", cause)); err != nil {
			logger.Warn("Recording aborted state for %s: %v", b.report.DocumentID, err)
		}
	}
}

// Restore rebuilds the in-memory generation from a persisted snapshot.
// A missing snapshot is not an error; the service simply starts empty.
func (s *Ingestor) Restore(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}
	snap, err := s.snapshots.LoadSnapshot(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("loading snapshot: %w", err)
	}

	index := s.newIndex(s.embedder.Dimensions())
	gen := &generation{
		id:     snap.Generation,
		index:  index,
		chunks: make(map[string]domain.Chunk, len(snap.Chunks)),
		uris:   make(map[string]string, len(snap.Documents)),
	}
	for _, doc := range snap.Documents {
		gen.uris[doc.ID] = doc.URI
	}
	for _, chunk := range snap.Chunks {
		if err := index.Insert(ctx, driven.VectorEntry{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Sequence:   chunk.Sequence,
			Vector:     chunk.Embedding,
		}); err != nil {
			return fmt.Errorf("restoring snapshot: %w", err)
		}
		gen.chunks[chunk.ID] = chunk
	}

	s.current.Store(gen)
	// Keep the sequence ahead of the restored id so the next build gets
	// a fresh generation number.
	for {
		cur := s.genSeq.Load()
		if cur >= snap.Generation || s.genSeq.CompareAndSwap(cur, snap.Generation) {
			break
		}
	}

	logger.Info("Restored generation %d: %d documents, %d chunks",
		gen.id, len(gen.uris), len(gen.chunks))
	return nil
}

func (s *Ingestor) persistSnapshot(ctx context.Context, gen *generation) {
	if s.snapshots == nil {
		return
	}
	docs, err := s.registry.List(ctx, domain.StatusIndexed)
	if err != nil {
		logger.Warn("Snapshot skipped, listing documents: %v", err)
		return
	}
	inGen := docs[:0]
	for _, doc := range docs {
		if _, ok := gen.uris[doc.ID]; ok {
			inGen = append(inGen, doc)
		}
	}
	chunks := make([]domain.Chunk, 0, len(gen.chunks))
	for _, chunk := range gen.chunks {
		chunks = append(chunks, chunk)
	}
	snap := &driven.Snapshot{Generation: gen.id, Documents: inGen, Chunks: chunks}
	if err := s.snapshots.SaveSnapshot(ctx, snap); err != nil {
		logger.Warn("Persisting generation %d snapshot: %v", gen.id, err)
	}
}

// effectiveOptions overlays non-zero request options on the defaults.
func (s *Ingestor) effectiveOptions(req domain.IndexOptions) domain.IndexOptions {
	opts := s.defaults
	if req.ChunkSize != 0 {
		opts.ChunkSize = req.ChunkSize
	}
	if req.ChunkOverlap != 0 {
		opts.ChunkOverlap = req.ChunkOverlap
	}
	if req.SimilarityTopK != 0 {
		opts.SimilarityTopK = req.SimilarityTopK
	}
	if req.ToolTimeout != 0 {
		opts.ToolTimeout = req.ToolTimeout
	}
	if req.MaxConcurrency != 0 {
		opts.MaxConcurrency = req.MaxConcurrency
	}
	return opts
}
