// Package batch drives golden matching and comparison across every result
// set beneath a results root.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/abaire/pgraph-compare/internal/diffing"
	"github.com/abaire/pgraph-compare/internal/hostenv"
	"github.com/abaire/pgraph-compare/internal/matching"
	"github.com/abaire/pgraph-compare/internal/resultset"
	"github.com/abaire/pgraph-compare/internal/summary"
)

// Config contains the collaborators and roots for a batch run.
type Config struct {
	Logger logrus.FieldLogger

	ResultsRoot string
	GoldenRoot  string
	OutputRoot  string

	// HardwareGoldens treats GoldenRoot as a single real-hardware capture
	// tree instead of a pool of emulator-release candidates.
	HardwareGoldens bool

	// Force recomputes comparisons whose output already exists.
	Force bool

	// Concurrency bounds how many comparisons run at once.
	Concurrency int

	MachineInfoFilename string

	Engine  *diffing.Engine
	Matcher *matching.Matcher
}

// Result describes the outcome of one comparison within a batch.
type Result struct {
	ResultPath string
	GoldenPath string
	Err        error
}

// Orchestrator discovers result sets needing comparison and drives the
// matcher and diff engine over each, aggregating into the output root's
// registry. The registry is seeded from prior batches and persisted once at
// the end of each batch, so entries only ever accumulate.
type Orchestrator struct {
	cfg      *Config
	log      logrus.FieldLogger
	registry *summary.Registry
}

// NewOrchestrator creates a batch orchestrator.
func NewOrchestrator(cfg *Config) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.MachineInfoFilename == "" {
		cfg.MachineInfoFilename = hostenv.MachineInfoFilename
	}

	return &Orchestrator{
		cfg:      cfg,
		log:      cfg.Logger.WithField("component", "batch_orchestrator"),
		registry: summary.NewRegistry(),
	}
}

// FindMissing returns result-set directories whose mirrored path does not
// already exist under the output root. With Force set, every discovered
// result set is returned.
func (o *Orchestrator) FindMissing() ([]string, error) {
	runs, err := resultset.DiscoverRuns(o.cfg.ResultsRoot)
	if err != nil {
		return nil, err
	}

	if o.cfg.Force {
		return runs, nil
	}

	missing := make([]string, 0, len(runs))
	for _, run := range runs {
		key := resultset.KeyFromPath(run)
		mirrored := filepath.Join(o.cfg.OutputRoot, key.OutputSubdirectory())
		if _, err := os.Stat(mirrored); os.IsNotExist(err) {
			missing = append(missing, run)
		}
	}

	return missing, nil
}

// Run compares every result set needing comparison against its best golden
// baseline. Individual comparison failures are reported in the returned
// results but do not abort the batch; the registry is persisted once at the
// end regardless.
func (o *Orchestrator) Run(ctx context.Context) ([]Result, error) {
	missing, err := o.FindMissing()
	if err != nil {
		return nil, err
	}

	if len(missing) == 0 {
		o.log.Info("no result sets need comparison")
		return nil, nil
	}

	// Seed from prior batches so an incremental run appends to the registry
	// instead of clobbering it.
	registryPath := filepath.Join(o.cfg.OutputRoot, summary.RegistryFilename)
	o.registry, err = summary.LoadRegistry(registryPath)
	if err != nil {
		return nil, err
	}

	candidates, hardwareGoldens, err := o.loadGoldenCandidates()
	if err != nil {
		return nil, err
	}

	o.log.WithFields(logrus.Fields{
		"result_sets": len(missing),
		"candidates":  len(candidates),
		"concurrency": o.cfg.Concurrency,
	}).Info("starting batch comparison")

	results := make([]Result, len(missing))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)

	for i, resultPath := range missing {
		i, resultPath := i, resultPath
		g.Go(func() error {
			goldenPath, compareErr := o.compareOne(gctx, resultPath, candidates, hardwareGoldens)
			if compareErr != nil {
				o.log.WithError(compareErr).WithField("result", resultPath).Error("comparison failed, continuing batch")
			}

			results[i] = Result{
				ResultPath: resultPath,
				GoldenPath: goldenPath,
				Err:        compareErr,
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	if err := os.MkdirAll(o.cfg.OutputRoot, 0o755); err != nil {
		return results, fmt.Errorf("creating output root %s: %w", o.cfg.OutputRoot, err)
	}

	if err := o.registry.Save(registryPath); err != nil {
		return results, err
	}

	o.log.WithFields(logrus.Fields{
		"registry":    registryPath,
		"comparisons": o.registry.Len(),
	}).Info("batch complete")

	return results, nil
}

// Registry exposes the accumulated result-to-golden mapping.
func (o *Orchestrator) Registry() *summary.Registry {
	return o.registry
}

// loadGoldenCandidates enumerates candidate golden runs and extracts their
// environments. Candidates with missing or unparsable descriptors are
// excluded from matching, not fatal to the batch. For hardware goldens the
// single capture tree is parsed once and shared.
func (o *Orchestrator) loadGoldenCandidates() (map[string]*hostenv.Environment, *resultset.Set, error) {
	if o.cfg.HardwareGoldens {
		goldens, err := resultset.ParseHardwareGoldens(o.cfg.GoldenRoot)
		if err != nil {
			return nil, nil, err
		}

		return nil, goldens, nil
	}

	runs, err := resultset.DiscoverRuns(o.cfg.GoldenRoot)
	if err != nil {
		return nil, nil, err
	}

	candidates := make(map[string]*hostenv.Environment, len(runs))
	for _, run := range runs {
		env, extractErr := hostenv.ExtractFile(run, o.cfg.MachineInfoFilename)
		if extractErr != nil {
			o.log.WithError(extractErr).WithField("candidate", run).Warn("excluding golden candidate without machine descriptor")
			continue
		}
		candidates[run] = env
	}

	return candidates, nil, nil
}

// compareOne matches a single result set to its golden baseline and runs the
// diff engine over the pair. Returns the chosen golden path.
func (o *Orchestrator) compareOne(
	ctx context.Context,
	resultPath string,
	candidates map[string]*hostenv.Environment,
	hardwareGoldens *resultset.Set,
) (string, error) {
	results, err := resultset.Parse(resultPath)
	if err != nil {
		return "", err
	}

	var goldens *resultset.Set
	goldenPath := o.cfg.GoldenRoot

	if hardwareGoldens != nil {
		goldens = hardwareGoldens
	} else {
		env, envErr := hostenv.ExtractFile(resultPath, o.cfg.MachineInfoFilename)
		if envErr != nil {
			return "", envErr
		}

		bestPath, _, matchErr := o.cfg.Matcher.Best(env, candidates)
		if matchErr != nil {
			return "", matchErr
		}

		goldenPath = bestPath
		goldens, err = resultset.Parse(bestPath)
		if err != nil {
			return "", err
		}
	}

	if _, err := o.cfg.Engine.Run(ctx, results, goldens, o.cfg.OutputRoot); err != nil {
		return goldenPath, err
	}

	relPath, err := filepath.Rel(o.cfg.ResultsRoot, resultPath)
	if err != nil {
		relPath = resultPath
	}
	o.registry.Record(relPath, goldenPath)

	return goldenPath, nil
}
