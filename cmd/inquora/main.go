// Inquora answers natural-language questions by retrieving evidence
// from indexed documents, encyclopedic sources, academic papers and web
// search, then delegating answer synthesis to a language model.
package main

import (
	"context"
	"fmt"
	"os"

	configfile "github.com/inquora/inquora-cli/internal/adapters/driven/config/file"
	"github.com/inquora/inquora-cli/internal/adapters/driven/embedding/cache"
	openaiemb "github.com/inquora/inquora-cli/internal/adapters/driven/embedding/openai"
	"github.com/inquora/inquora-cli/internal/adapters/driven/fetch/arxiv"
	"github.com/inquora/inquora-cli/internal/adapters/driven/fetch/brave"
	"github.com/inquora/inquora-cli/internal/adapters/driven/fetch/wikipedia"
	openaillm "github.com/inquora/inquora-cli/internal/adapters/driven/llm/openai"
	"github.com/inquora/inquora-cli/internal/adapters/driven/loader"
	"github.com/inquora/inquora-cli/internal/adapters/driven/storage/memory"
	"github.com/inquora/inquora-cli/internal/adapters/driven/storage/sqlite"
	"github.com/inquora/inquora-cli/internal/adapters/driven/vector/flat"
	"github.com/inquora/inquora-cli/internal/adapters/driving/cli"
	"github.com/inquora/inquora-cli/internal/core/domain"
	"github.com/inquora/inquora-cli/internal/core/ports/driven"
	"github.com/inquora/inquora-cli/internal/core/services"
	"github.com/inquora/inquora-cli/internal/extractors"
	"github.com/inquora/inquora-cli/internal/logger"
	"github.com/inquora/inquora-cli/internal/retrieval"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	settings := configfile.LoadSettings(configStore)

	// Without an OpenAI key the commands that need embeddings or
	// synthesis report themselves unconfigured; version and help still
	// work.
	if settings.OpenAIAPIKey != "" {
		ask, index, err := buildServices(ctx, settings, configStore)
		if err != nil {
			return err
		}
		cli.SetServices(ask, index)
	} else {
		logger.Warn("OPENAI_API_KEY not set; ask and index are disabled")
	}

	return cli.Execute()
}

func buildServices(ctx context.Context, settings configfile.Settings, configStore driven.ConfigStore) (*services.Orchestrator, *services.Ingestor, error) {
	embeddingBackend, err := openaiemb.New(openaiemb.Config{
		APIKey:  settings.OpenAIAPIKey,
		BaseURL: settings.OpenAIBaseURL,
		Model:   settings.EmbeddingModel,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating embedding service: %w", err)
	}
	embedder := cache.New(embeddingBackend)

	answerer, err := openaillm.New(openaillm.Config{
		APIKey:  settings.OpenAIAPIKey,
		BaseURL: settings.OpenAIBaseURL,
		Model:   settings.ChatModel,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating answerer: %w", err)
	}

	var snapshots driven.SnapshotStore
	if settings.PersistIndex {
		store, err := sqlite.NewStore("")
		if err != nil {
			return nil, nil, fmt.Errorf("opening snapshot store: %w", err)
		}
		snapshots = store
	}

	ingestor := services.NewIngestor(
		services.NewRegistry(memory.NewRegistryStore()),
		loader.New(),
		extractors.NewDefaultRegistry(),
		embedder,
		func(dims int) driven.VectorIndex { return flat.New(dims) },
		snapshots,
		settings.Index,
	)
	if err := ingestor.Restore(ctx); err != nil {
		logger.Warn("Could not restore persisted index: %v", err)
	}

	tools := retrieval.NewSet(
		retrieval.NewDocIndexTool(ingestor, embedder),
		retrieval.NewFetcherTool("wikipedia_summary", domain.TagFastFactual, wikipedia.NewQuickFetcher()),
		retrieval.NewFetcherTool("wikipedia_extracts", domain.TagDeepContextual, wikipedia.NewDeepFetcher()),
		retrieval.NewFetcherTool("arxiv_search", domain.TagAcademic, arxiv.New()),
	)
	if settings.BraveAPIKey != "" {
		tools.Add(retrieval.NewFetcherTool("brave_search", domain.TagWeb, brave.New(settings.BraveAPIKey)))
	}
	if corpus := buildCorpus(ctx, configStore, embedder, settings.Index); corpus != nil {
		tools.Add(corpus)
	}

	orchestrator := services.NewOrchestrator(tools, answerer, ingestor, settings.Index)
	return orchestrator, ingestor, nil
}

// buildCorpus assembles the optional fixed documentation corpus from
// locally configured files. Queries matching its keywords are routed to
// it exclusively.
func buildCorpus(ctx context.Context, configStore driven.ConfigStore, embedder driven.EmbeddingService, opts domain.IndexOptions) *retrieval.CorpusTool {
	paths := configStore.GetStringSlice("corpus.paths")
	keywords := configStore.GetStringSlice("corpus.keywords")
	if len(paths) == 0 || len(keywords) == 0 {
		return nil
	}

	var docs []retrieval.CorpusDocument
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Skipping corpus file %s: %v", path, err)
			continue
		}
		docs = append(docs, retrieval.CorpusDocument{
			Title:   path,
			URI:     path,
			Content: string(content),
		})
	}
	if len(docs) == 0 {
		return nil
	}

	corpus := retrieval.NewCorpusTool("corpus_docs", keywords, docs, embedder, opts)
	if err := corpus.Build(ctx); err != nil {
		logger.Warn("Corpus disabled: %v", err)
		return nil
	}
	return corpus
}
