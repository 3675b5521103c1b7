package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abaire/pgraph-compare/internal/actions"
)

var showConfigCmd = &cobra.Command{
	Use:   "show-config",
	Short: "Display current configuration",
	RunE: func(_ *cobra.Command, _ []string) error {
		return actions.ShowConfig()
	},
}

func init() {
	rootCmd.AddCommand(showConfigCmd)
}
