package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abaire/pgraph-compare/internal/actions"
)

var listCmd = &cobra.Command{
	Use:   "list <results-root>",
	Short: "List likely test result sets beneath a root",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return actions.ListRuns(args[0])
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
