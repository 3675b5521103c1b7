// Package actions contains the core business logic for pgraph-compare operations
package actions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/abaire/pgraph-compare/internal/config"
	"github.com/abaire/pgraph-compare/internal/diffing"
	"github.com/abaire/pgraph-compare/internal/hostenv"
	"github.com/abaire/pgraph-compare/internal/matching"
	"github.com/abaire/pgraph-compare/internal/resultset"
	"github.com/abaire/pgraph-compare/internal/summary"
)

// BuildEngine constructs the diff engine with the configured distance
// backend and the perceptualdiff artifact renderer.
func BuildEngine(log logrus.FieldLogger, cfg *config.Config) (*diffing.Engine, error) {
	renderer := diffing.NewPerceptualDiff(cfg.PerceptualDiffBinary, log)

	var distancer diffing.Distancer
	switch cfg.DistanceBackend {
	case "pixel":
		distancer = diffing.PixelDistancer{}
	case "perceptualdiff":
		distancer = renderer
	default:
		return nil, fmt.Errorf("unknown distance backend %q (want pixel or perceptualdiff)", cfg.DistanceBackend)
	}

	return diffing.NewEngine(&diffing.Config{
		Logger:      log,
		Distancer:   distancer,
		Renderer:    renderer,
		Threshold:   cfg.DiffThreshold,
		Concurrency: cfg.Concurrency,
	}), nil
}

// ResolveGoldenRoot maps an --against value to a golden root. An empty value
// selects the locally cached hardware-golden tree; a path containing the
// hardware marker is also treated as hardware captures.
func ResolveGoldenRoot(cfg *config.Config, against string) (root string, hardware bool) {
	if against == "" {
		return filepath.Join(cfg.CachePath, cfg.HardwareGoldenMarker, "results"), true
	}

	return against, strings.Contains(against, cfg.HardwareGoldenMarker)
}

// RequireDirectory fails when path is not an existing directory.
func RequireDirectory(path, label string) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s directory '%s' does not exist", label, path)
	}

	return nil
}

// Compare runs one comparison of a result set against the golden root
// selected by against. Returns the written summary, or nil when the sides
// fully matched and nothing was persisted.
func Compare(
	ctx context.Context,
	log logrus.FieldLogger,
	cfg *config.Config,
	resultsPath, against string,
) (*summary.Summary, error) {
	if err := RequireDirectory(resultsPath, "results"); err != nil {
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

	results, err := resultset.Parse(resultsPath)
	if err != nil {
		return nil, err
	}

	goldens, err := SelectGoldens(log, cfg.MachineInfoFilename, resultsPath, goldenRoot, hardware)
	if err != nil {
		return nil, err
	}

	sum, err := engine.Run(ctx, results, goldens, cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("comparison failed: %w", err)
	}

	return sum, nil
}

// SelectGoldens resolves the golden set for a single comparison. A golden
// root containing multiple candidate runs goes through the baseline matcher;
// a single run (or the run directory itself) is used directly.
func SelectGoldens(
	log logrus.FieldLogger,
	machineInfoFilename, resultsPath, goldenRoot string,
	hardware bool,
) (*resultset.Set, error) {
	if hardware {
		return resultset.ParseHardwareGoldens(goldenRoot)
	}

	runs, err := resultset.DiscoverRuns(goldenRoot)
	if err != nil {
		return nil, err
	}

	switch len(runs) {
	case 0:
		return resultset.Parse(goldenRoot)
	case 1:
		return resultset.Parse(runs[0])
	}

	env, err := hostenv.ExtractFile(resultsPath, machineInfoFilename)
	if err != nil {
		return nil, err
	}

	candidates := make(map[string]*hostenv.Environment, len(runs))
	for _, run := range runs {
		candidateEnv, extractErr := hostenv.ExtractFile(run, machineInfoFilename)
		if extractErr != nil {
			log.WithError(extractErr).WithField("candidate", run).Warn("excluding golden candidate without machine descriptor")
			continue
		}
		candidates[run] = candidateEnv
	}

	bestPath, _, err := matching.NewMatcher(log).Best(env, candidates)
	if err != nil {
		return nil, err
	}

	return resultset.Parse(bestPath)
}
