package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inquora/inquora-cli/internal/core/domain"
)

var (
	askScope        []string
	askTools        []string
	askTopK         int
	askShowEvidence bool
	askJSON         bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question",
	Long: `Routes the question to the relevant retrieval tools, aggregates
their evidence and prints a synthesized answer.

Use --scope to restrict document retrieval to specific document ids,
and --tool to bypass automatic selection entirely.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringArrayVar(&askScope, "scope", nil, "restrict document retrieval to these document ids (repeatable)")
	askCmd.Flags().StringArrayVar(&askTools, "tool", nil, "use exactly these tools: document-index, fast-factual, deep-contextual, academic, web, fixed-corpus (repeatable)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "evidence items per tool (default from config)")
	askCmd.Flags().BoolVar(&askShowEvidence, "evidence", false, "print the evidence behind the answer")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the full answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}

	opts := domain.AskOptions{TopK: askTopK}
	if cmd.Flags().Changed("scope") {
		opts.Scope = domain.ScopeTo(askScope...)
	}
	for _, tool := range askTools {
		opts.Tools = append(opts.Tools, domain.ToolTag(tool))
	}

	answer, err := askService.Ask(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)

	if answer.NoEvidence {
		cmd.Println("\n(no supporting evidence was retrieved)")
	}
	if askShowEvidence && len(answer.Evidence) > 0 {
		cmd.Println("\nEvidence:")
		for i, item := range answer.Evidence {
			cmd.Printf("  [%d] %s (%.2f) %s\n", i+1, item.Tool, item.Score, item.SourceRef)
			cmd.Printf("      %s\n", item.Snippet)
		}
	}
	for tag, msg := range answer.ToolErrors {
		cmd.PrintErrf("warning: %s: %s\n", tag, msg)
	}
	return nil
}
