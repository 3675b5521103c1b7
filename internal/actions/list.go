package actions

import (
	"fmt"

	"github.com/abaire/pgraph-compare/internal/resultset"
)

// ListRuns prints the likely test result sets beneath root.
func ListRuns(root string) error {
	runs, err := resultset.DiscoverRuns(root)
	if err != nil {
		return err
	}

	fmt.Println("Discovered test runs:")
	if len(runs) == 0 {
		fmt.Println("  None")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("  %s\n", run)
	}

	return nil
}

// ShowConfig displays the current configuration.
func ShowConfig() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	fmt.Println(cfg.String())

	return nil
}
