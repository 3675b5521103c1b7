package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abaire/pgraph-compare/internal/actions"
)

var (
	compareAgainst        string
	compareOutputDir      string
	compareThreshold      float64
	compareBackend        string
	comparePerceptualDiff string
	compareVerbose        bool
)

var compareCmd = &cobra.Command{
	Use:   "compare <results>",
	Short: "Compare one result set against a golden set",
	Long: `Compare one result set against a golden set and write diff artifacts plus
a summary.json beneath the output directory.

The --against path may be a single golden run directory, or a root containing
multiple candidate runs, in which case the candidate whose environment best
matches the result set is selected. Omit --against to compare against the
locally cached real-hardware goldens.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resultsPath := args[0]
		log := newLogger(compareVerbose)

		cfg, err := actions.LoadConfig()
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("diff-threshold") {
			cfg.DiffThreshold = compareThreshold
		}
		if cmd.Flags().Changed("backend") {
			cfg.DistanceBackend = compareBackend
		}
		if cmd.Flags().Changed("perceptualdiff") {
			cfg.PerceptualDiffBinary = comparePerceptualDiff
		}
		if cmd.Flags().Changed("output-dir") {
			cfg.OutputDir = compareOutputDir
		}

		sum, err := actions.Compare(context.Background(), log, cfg, resultsPath, compareAgainst)
		if err != nil {
			return err
		}

		if sum == nil {
			fmt.Println("\n✅ Result set fully matches its golden, nothing persisted.")
			return nil
		}

		fmt.Printf("\n✅ Compared '%s' against '%s': %d differences, %d missing goldens, %d missing results.\n",
			sum.ResultIdentifier,
			sum.GoldenIdentifier,
			len(sum.TestsWithDifferences),
			len(sum.TestsWithoutGoldens),
			len(sum.GoldensWithoutResults),
		)

		return nil
	},
}

func init() {
	compareCmd.Flags().StringVarP(&compareAgainst, "against", "a", "", "Path to the root of the results to consider golden. Omit to test against the cached HW goldens.")
	compareCmd.Flags().StringVarP(&compareOutputDir, "output-dir", "o", "compare-results", "Path to directory into which diff artifacts will be written")
	compareCmd.Flags().Float64VarP(&compareThreshold, "diff-threshold", "t", 0.00001, "Distance threshold at or above which diff images are generated")
	compareCmd.Flags().StringVar(&compareBackend, "backend", "pixel", "Distance backend to use (pixel or perceptualdiff)")
	compareCmd.Flags().StringVar(&comparePerceptualDiff, "perceptualdiff", "perceptualdiff", "Path to the perceptualdiff binary")
	compareCmd.Flags().BoolVarP(&compareVerbose, "verbose", "v", false, "Enables verbose logging information")
	rootCmd.AddCommand(compareCmd)
}
