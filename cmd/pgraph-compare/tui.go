package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/abaire/pgraph-compare/cmd"
	"github.com/abaire/pgraph-compare/internal/actions"
	"github.com/abaire/pgraph-compare/internal/resultset"
	"github.com/abaire/pgraph-compare/pkg/interactive"
)

func runInteractive() {
	fmt.Println("pgraph-compare - Interactive Mode")
	fmt.Println("=================================")
	fmt.Println()

	for {
		options := []interactive.MenuOption{
			{
				Name:        "🔍 List Result Sets",
				Description: "Show likely test runs beneath a results root",
				Action:      listResultSets,
			},
			{
				Name:        "🖼️  Run Comparison",
				Description: "Compare one result set against a golden set",
				Action:      runComparison,
			},
			{
				Name:        "📦 Run Batch",
				Description: "Compare every new result set against its best golden",
				Action:      runBatch,
			},
			{
				Name:        "📋 Show Config",
				Description: "Display current environment configuration",
				Action: func() error {
					if err := actions.ShowConfig(); err != nil {
						fmt.Printf("\n❌ Error: %v\n", err)
					}
					interactive.PauseForEnter()
					return nil
				},
			},
		}

		if err := interactive.ShowMainMenu(options); err != nil {
			if errors.Is(err, interactive.ErrExit) {
				fmt.Println("Goodbye!")
				return
			}
			log.Fatal(err)
		}

		fmt.Println()
	}
}

func listResultSets() error {
	root, err := interactive.AskPath("Results root:", "results")
	if err != nil {
		return nil
	}

	if err := actions.ListRuns(root); err != nil {
		fmt.Printf("\n❌ Error: %v\n", err)
	}

	interactive.PauseForEnter()
	return nil
}

func runComparison() error {
	cfg, err := actions.LoadConfig()
	if err != nil {
		fmt.Printf("\n❌ Error: %v\n", err)
		interactive.PauseForEnter()
		return nil
	}

	root, err := interactive.AskPath("Results root:", "results")
	if err != nil {
		return nil
	}

	runs, err := resultset.DiscoverRuns(root)
	if err != nil || len(runs) == 0 {
		fmt.Println("\n❌ No result sets found.")
		interactive.PauseForEnter()
		return nil
	}

	resultsPath, err := interactive.SelectFrom("Result set to compare:", runs)
	if err != nil {
		return nil
	}

	against, err := interactive.AskPath("Golden root (empty for cached HW goldens):", "")
	if err != nil {
		return nil
	}

	if !interactive.Confirm(fmt.Sprintf("Compare '%s'?", resultsPath)) {
		fmt.Println("Comparison canceled.")
		interactive.PauseForEnter()
		return nil
	}

	sum, err := actions.Compare(context.Background(), cmd.Logger, cfg, resultsPath, against)
	if err != nil {
		fmt.Printf("\n❌ Error: %v\n", err)
		interactive.PauseForEnter()
		return nil
	}

	if sum == nil {
		fmt.Println("\n✅ Result set fully matches its golden, nothing persisted.")
	} else {
		fmt.Printf("\n✅ %d differences, %d missing goldens, %d missing results.\n",
			len(sum.TestsWithDifferences),
			len(sum.TestsWithoutGoldens),
			len(sum.GoldensWithoutResults),
		)
	}

	interactive.PauseForEnter()
	return nil
}

func runBatch() error {
	cfg, err := actions.LoadConfig()
	if err != nil {
		fmt.Printf("\n❌ Error: %v\n", err)
		interactive.PauseForEnter()
		return nil
	}

	root, err := interactive.AskPath("Results root:", "results")
	if err != nil {
		return nil
	}

	against, err := interactive.AskPath("Golden root (empty for cached HW goldens):", "")
	if err != nil {
		return nil
	}

	force := interactive.Confirm("Recompute comparisons whose output already exists?")

	if !interactive.Confirm(fmt.Sprintf("Run batch over '%s'?", root)) {
		fmt.Println("Batch canceled.")
		interactive.PauseForEnter()
		return nil
	}

	results, err := actions.Batch(context.Background(), cmd.Logger, cfg, root, against, force)
	if err != nil {
		fmt.Printf("\n❌ Error: %v\n", err)
		interactive.PauseForEnter()
		return nil
	}

	failed := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
		}
	}

	if failed > 0 {
		fmt.Printf("\n⚠️  %d of %d comparisons failed.\n", failed, len(results))
	} else {
		fmt.Printf("\n✅ %d comparisons completed.\n", len(results))
	}

	interactive.PauseForEnter()
	return nil
}
