package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abaire/pgraph-compare/internal/actions"
)

var (
	batchAgainst        string
	batchOutputDir      string
	batchThreshold      float64
	batchBackend        string
	batchPerceptualDiff string
	batchConcurrency    int
	batchForce          bool
	batchVerbose        bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <results-root>",
	Short: "Compare every result set under a root against its best golden",
	Long: `Discover all result sets beneath the results root that have not yet been
compared (or all of them with --force), match each to its best golden
candidate, run the comparison and write the batch registry.

Individual comparison failures are reported and skipped; the batch is
best-effort and still persists the registry and whatever summaries succeeded.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resultsRoot := args[0]
		log := newLogger(batchVerbose)

		cfg, err := actions.LoadConfig()
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("diff-threshold") {
			cfg.DiffThreshold = batchThreshold
		}
		if cmd.Flags().Changed("backend") {
			cfg.DistanceBackend = batchBackend
		}
		if cmd.Flags().Changed("perceptualdiff") {
			cfg.PerceptualDiffBinary = batchPerceptualDiff
		}
		if cmd.Flags().Changed("output-dir") {
			cfg.OutputDir = batchOutputDir
		}
		if cmd.Flags().Changed("concurrency") {
			cfg.Concurrency = batchConcurrency
		}

		results, err := actions.Batch(context.Background(), log, cfg, resultsRoot, batchAgainst, batchForce)
		if err != nil {
			return fmt.Errorf("batch failed: %w", err)
		}

		failed := 0
		for _, result := range results {
			if result.Err != nil {
				failed++
			}
		}

		if failed > 0 {
			fmt.Printf("\n⚠️  Batch finished: %d of %d comparisons failed.\n", failed, len(results))
			return nil
		}

		fmt.Printf("\n✅ Batch finished: %d comparisons completed.\n", len(results))
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchAgainst, "against", "a", "", "Path to the root of the results to consider golden. Omit to test against the cached HW goldens.")
	batchCmd.Flags().StringVarP(&batchOutputDir, "output-dir", "o", "compare-results", "Path to directory into which diff artifacts will be written")
	batchCmd.Flags().Float64VarP(&batchThreshold, "diff-threshold", "t", 0.00001, "Distance threshold at or above which diff images are generated")
	batchCmd.Flags().StringVar(&batchBackend, "backend", "pixel", "Distance backend to use (pixel or perceptualdiff)")
	batchCmd.Flags().StringVar(&batchPerceptualDiff, "perceptualdiff", "perceptualdiff", "Path to the perceptualdiff binary")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "Number of comparisons to run in parallel")
	batchCmd.Flags().BoolVarP(&batchForce, "force", "f", false, "Recompute comparisons whose output already exists")
	batchCmd.Flags().BoolVarP(&batchVerbose, "verbose", "v", false, "Enables verbose logging information")
	rootCmd.AddCommand(batchCmd)
}
