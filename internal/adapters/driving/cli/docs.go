package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inquora/inquora-cli/internal/core/domain"
)

var docsStatus string

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List registered documents",
	Long: `Lists every registered document with its id, ingestion status and
the index generation it was last indexed into. Use the ids with
'ask --scope' to restrict retrieval.`,
	RunE: runDocs,
}

func init() {
	docsCmd.Flags().StringVar(&docsStatus, "status", "", "filter by status: unindexed, indexing, indexed, failed")
	rootCmd.AddCommand(docsCmd)
}

func runDocs(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	docs, err := indexService.Documents(cmd.Context(), domain.IngestStatus(docsStatus))
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents registered.")
		return nil
	}

	cmd.Printf("Current generation: %d\n\n", indexService.Generation())
	for _, doc := range docs {
		line := fmt.Sprintf("  %s  %-9s  gen %d  %s", doc.ID, doc.Status, doc.Generation, doc.URI)
		cmd.Println(line)
		if doc.Status == domain.StatusFailed && doc.FailureReason != "" {
			cmd.Printf("      reason: %s\n", doc.FailureReason)
		}
	}
	return nil
}
