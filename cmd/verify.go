package cmd

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abaire/pgraph-compare/internal/actions"
	"github.com/abaire/pgraph-compare/internal/summary"
)

var verifyVerbose bool

var verifyCmd = &cobra.Command{
	Use:   "verify <output-root>",
	Short: "Validate comparison summaries against the artifact schema",
	Long: `Walk an output root and validate every summary.json against the comparison
summary JSON schema. Useful as a CI gate before report generation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		outputRoot := args[0]
		log := newLogger(verifyVerbose)

		if err := actions.RequireDirectory(outputRoot, "output"); err != nil {
			return err
		}

		validated := 0
		invalid := 0

		err := filepath.WalkDir(outputRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || d.Name() != summary.Filename {
				return nil
			}

			if validateErr := summary.ValidateFile(path); validateErr != nil {
				log.WithError(validateErr).WithField("summary", path).Error("invalid summary artifact")
				invalid++
				return nil
			}

			log.WithField("summary", path).Debug("summary artifact valid")
			validated++

			return nil
		})
		if err != nil {
			return fmt.Errorf("walking output root: %w", err)
		}

		if invalid > 0 {
			return fmt.Errorf("%d of %d summary artifacts failed validation", invalid, validated+invalid)
		}

		fmt.Printf("\n✅ %d summary artifacts validated successfully.\n", validated)
		return nil
	},
}

func init() {
	verifyCmd.Flags().BoolVarP(&verifyVerbose, "verbose", "v", false, "Enables verbose logging information")
	rootCmd.AddCommand(verifyCmd)
}
