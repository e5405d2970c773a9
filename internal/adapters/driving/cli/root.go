// Package cli implements the command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/inquora/inquora-cli/internal/core/ports/driving"
	"github.com/inquora/inquora-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services injected by main before Execute runs.
var (
	askService   driving.AskService
	indexService driving.IndexService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "inquora",
	Short: "Question answering over your documents and the open web",
	Long: `Inquora answers natural-language questions by retrieving evidence
from your indexed documents, encyclopedic sources, academic papers and
web search, then synthesizing a grounded answer.

Index documents first, then ask:

  inquora index notes/chapter1.md notes/chapter2.md
  inquora ask "what does chapter one say about caching?"`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetServices injects the driving ports used by the commands.
func SetServices(ask driving.AskService, index driving.IndexService) {
	askService = ask
	indexService = index
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
