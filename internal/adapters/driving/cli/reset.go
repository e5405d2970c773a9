package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the conversation context",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if askService == nil {
			return errors.New("ask service not configured")
		}
		askService.Reset()
		cmd.Println("Conversation cleared.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
