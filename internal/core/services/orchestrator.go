package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/inquora/inquora-cli/internal/core/domain"
	"github.com/inquora/inquora-cli/internal/core/ports/driven"
	"github.com/inquora/inquora-cli/internal/core/ports/driving"
	"github.com/inquora/inquora-cli/internal/logger"
	"github.com/inquora/inquora-cli/internal/retrieval"
)

const (
	// historyWindow is how many recent turns are handed to synthesis.
	historyWindow = 6

	// maxAggregatedEvidence caps the evidence list handed to synthesis.
	maxAggregatedEvidence = 12

	// fanoutMargin pads the global deadline beyond the per-tool timeout
	// so a tool that uses its full budget still reports back.
	fanoutMargin = 2 * time.Second

	// shortQueryWords is the word-count boundary between a quick factual
	// lookup and a deep contextual search.
	shortQueryWords = 10
)

// arxivIDPattern matches paper references like 1706.03762.
var arxivIDPattern = regexp.MustCompile(`\b\d{4}\.\d{4,5}\b`)

var academicTerms = []string{"arxiv", "paper", "papers", "preprint", "publication", "doi", "study", "studies"}

var freshnessTerms = []string{"latest", "news", "today", "current", "currently", "recent", "right now", "this week", "this year", "price", "weather"}

// queryMatcher is implemented by tools that advertise keyword triggers.
type queryMatcher interface {
	MatchesQuery(query string) bool
}

// Ensure Orchestrator implements the driving port.
var _ driving.AskService = (*Orchestrator)(nil)

// Orchestrator answers queries by selecting retrieval tools with a
// fixed rule table, fanning out to them concurrently, aggregating their
// evidence in selection order and delegating synthesis. It never
// generates answer prose itself.
type Orchestrator struct {
	tools        *retrieval.Set
	answerer     driven.Answerer
	source       retrieval.SnapshotSource
	conversation *domain.Conversation
	opts         domain.IndexOptions
}

// NewOrchestrator creates the query orchestration service.
func NewOrchestrator(tools *retrieval.Set, answerer driven.Answerer, source retrieval.SnapshotSource, opts domain.IndexOptions) *Orchestrator {
	return &Orchestrator{
		tools:        tools,
		answerer:     answerer,
		source:       source,
		conversation: domain.NewConversation(),
		opts:         opts,
	}
}

// History returns the conversation turns so far.
func (o *Orchestrator) History() []domain.Turn {
	return o.conversation.Turns()
}

// Reset clears the conversation context.
func (o *Orchestrator) Reset() {
	o.conversation.Reset()
}

// Ask runs the full query pipeline: select, fan out, aggregate,
// synthesize, record. Tool failures are contained in the answer's
// ToolErrors; only bad input or synthesis failure returns an error.
func (o *Orchestrator) Ask(ctx context.Context, query string, opts domain.AskOptions) (*domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	tags, err := o.selectTools(query, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("Selected tools for query: %v", tags)

	evidence, toolErrors := o.fanOut(ctx, query, tags, opts)

	answer := &domain.Answer{
		Evidence:   evidence,
		NoEvidence: len(evidence) == 0,
		ToolErrors: toolErrors,
	}

	history := o.conversation.Recent(historyWindow)
	text, err := o.answerer.Synthesize(ctx, query, evidence, history)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSynthesisUnavailable, err)
	}
	answer.Text = text

	o.conversation.Append(domain.Turn{
		Query:      query,
		Response:   text,
		NoEvidence: answer.NoEvidence,
	})
	return answer, nil
}

// selectTools applies the rule table and returns capability tags in
// deterministic aggregation order. An explicit tool list in the options
// bypasses the rules entirely.
func (o *Orchestrator) selectTools(query string, opts domain.AskOptions) ([]domain.ToolTag, error) {
	if len(opts.Tools) > 0 {
		for _, tag := range opts.Tools {
			if !knownTag(tag) {
				return nil, fmt.Errorf("%w: unknown tool tag %q", domain.ErrInvalidInput, tag)
			}
		}
		return opts.Tools, nil
	}

	// A query that names the pinned corpus goes there exclusively; the
	// corpus is authoritative for its own subject.
	if corpus, ok := o.tools.ByTag(domain.TagFixedCorpus); ok {
		if matcher, ok := corpus.(queryMatcher); ok && matcher.MatchesQuery(query) {
			return []domain.ToolTag{domain.TagFixedCorpus}, nil
		}
	}

	lowered := strings.ToLower(query)
	words := len(strings.Fields(query))

	var tags []domain.ToolTag

	if snap, ok := o.source.Current(); ok && snap.DocumentCount() > 0 {
		tags = append(tags, domain.TagDocumentIndex)
	}
	if arxivIDPattern.MatchString(query) || containsAny(lowered, academicTerms) {
		tags = append(tags, domain.TagAcademic)
	}
	if words <= shortQueryWords {
		tags = append(tags, domain.TagFastFactual)
	} else {
		tags = append(tags, domain.TagDeepContextual)
	}
	if containsAny(lowered, freshnessTerms) || len(tags) == 1 {
		tags = append(tags, domain.TagWeb)
	}
	return tags, nil
}

// fanOut invokes the selected tools concurrently under a global
// deadline and aggregates evidence in selection order, deduplicated and
// capped. Arrival order never influences the result.
func (o *Orchestrator) fanOut(ctx context.Context, query string, tags []domain.ToolTag, opts domain.AskOptions) ([]domain.Evidence, map[domain.ToolTag]string) {
	topK := o.opts.SimilarityTopK
	if opts.TopK > 0 {
		topK = opts.TopK
	}
	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = o.opts.ToolTimeout + fanoutMargin
	}
	toolOpts := retrieval.Options{
		MaxResults: topK,
		Timeout:    o.opts.ToolTimeout,
		Scope:      opts.Scope,
	}

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	type result struct {
		evidence []domain.Evidence
		err      error
	}
	results := make([]result, len(tags))
	toolErrors := make(map[domain.ToolTag]string)

	sem := make(chan struct{}, o.opts.MaxConcurrency)
	var wg sync.WaitGroup
	for i, tag := range tags {
		tool, ok := o.tools.ByTag(tag)
		if !ok {
			toolErrors[tag] = "no tool registered"
			continue
		}
		wg.Add(1)
		go func(i int, tool retrieval.Tool) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			evidence, err := tool.Retrieve(ctx, query, toolOpts)
			results[i] = result{evidence: evidence, err: err}
		}(i, tool)
	}
	wg.Wait()

	seen := make(map[string]struct{})
	var aggregated []domain.Evidence
	for i, tag := range tags {
		res := results[i]
		if res.err != nil {
			toolErrors[tag] = res.err.Error()
			continue
		}
		for _, item := range res.evidence {
			if _, dup := seen[item.Snippet]; dup {
				continue
			}
			seen[item.Snippet] = struct{}{}
			if len(aggregated) >= maxAggregatedEvidence {
				break
			}
			aggregated = append(aggregated, item)
		}
	}
	return aggregated, toolErrors
}

func knownTag(tag domain.ToolTag) bool {
	switch tag {
	case domain.TagDocumentIndex, domain.TagFastFactual, domain.TagDeepContextual,
		domain.TagAcademic, domain.TagWeb, domain.TagFixedCorpus:
		return true
	}
	return false
}

func containsAny(lowered string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}
