package actions

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/abaire/pgraph-compare/internal/batch"
	"github.com/abaire/pgraph-compare/internal/config"
	"github.com/abaire/pgraph-compare/internal/matching"
)

// Batch compares every result set beneath resultsRoot against its best
// golden and writes the registry. Individual failures are reported in the
// returned results, not as an error.
func Batch(
	ctx context.Context,
	log logrus.FieldLogger,
	cfg *config.Config,
	resultsRoot, against string,
	force bool,
) ([]batch.Result, error) {
	if err := RequireDirectory(resultsRoot, "results"); err != nil {
		return nil, err
	}

	goldenRoot, hardware := ResolveGoldenRoot(cfg, against)
	if err := RequireDirectory(goldenRoot, "golden"); err != nil {
		return nil, err
	}

	engine, err := BuildEngine(log, cfg)
	if err != nil {
		return nil, err
	}

	orchestrator := batch.NewOrchestrator(&batch.Config{
		Logger:              log,
		ResultsRoot:         resultsRoot,
		GoldenRoot:          goldenRoot,
		OutputRoot:          cfg.OutputDir,
		HardwareGoldens:     hardware,
		Force:               force,
		Concurrency:         cfg.Concurrency,
		MachineInfoFilename: cfg.MachineInfoFilename,
		Engine:              engine,
		Matcher:             matching.NewMatcher(log),
	})

	return orchestrator.Run(ctx)
}
