package diffing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/abaire/pgraph-compare/internal/resultset"
	"github.com/abaire/pgraph-compare/internal/summary"
)

// Difference captures the measured distance for one test present in both the
// result set and the golden set.
type Difference struct {
	Suite          string
	TestCase       string
	ResultArtifact string
	GoldenArtifact string
	// Distance is DistanceNotComputed when Err is set; such differences are
	// never folded into a summary.
	Distance float64
	Err      error
}

// FullyQualifiedName returns the suite:test-case composite name, with spaces
// in the suite name flattened to underscores.
func (d Difference) FullyQualifiedName() string {
	return strings.ReplaceAll(d.Suite, " ", "_") + ":" + d.TestCase
}

// artifactRelPath is where the visual diff image for this difference lands,
// relative to the comparison output directory.
func (d Difference) artifactRelPath() string {
	return filepath.Join(d.Suite, d.TestCase+"-diff.png")
}

// Config contains the collaborators and tuning for a diff engine.
type Config struct {
	Logger      logrus.FieldLogger
	Distancer   Distancer
	Renderer    ArtifactRenderer
	Threshold   float64
	Concurrency int
}

// Engine computes per-test distances for a matched (result, golden) pair,
// renders diff artifacts for distances at or above the threshold and writes
// the comparison summary.
type Engine struct {
	distancer   Distancer
	renderer    ArtifactRenderer
	threshold   float64
	concurrency int
	log         logrus.FieldLogger

	pairMu    sync.Mutex
	pairLocks map[string]*sync.Mutex
}

// NewEngine creates a diff engine. The distance backend is invoked with at
// most Concurrency in-flight calls.
func NewEngine(cfg *Config) *Engine {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Engine{
		distancer:   cfg.Distancer,
		renderer:    cfg.Renderer,
		threshold:   cfg.Threshold,
		concurrency: concurrency,
		log:         cfg.Logger.WithField("component", "diff_engine"),
		pairLocks:   make(map[string]*sync.Mutex),
	}
}

// Compare computes the symmetric set difference of fully-qualified test
// names between the two sides and a Difference for every test present on
// both. Per-test backend failures are recorded on the Difference and do not
// abort the comparison.
func (e *Engine) Compare(
	ctx context.Context,
	result, golden *resultset.Set,
) (onlyResults, onlyGoldens []string, differences []Difference, err error) {
	resultTests := result.FlattenedTests()
	goldenTests := golden.FlattenedTests()

	onlyResults = sortedDifference(resultTests, goldenTests)
	onlyGoldens = sortedDifference(goldenTests, resultTests)

	differences = e.computeDistances(ctx, result, golden)

	return onlyResults, onlyGoldens, differences, nil
}

// Run performs a full comparison of result against golden, writing diff
// artifacts and summary.json beneath outputRoot. A fully-matching comparison
// is not persisted. Returns the written summary, or nil when nothing was
// persisted.
func (e *Engine) Run(
	ctx context.Context,
	result, golden *resultset.Set,
	outputRoot string,
) (*summary.Summary, error) {
	outputDir := filepath.Join(outputRoot, result.Key.OutputSubdirectory(), golden.Key.FlattenedIdentifier())

	unlock := e.lockPair(outputDir)
	defer unlock()

	log := e.log.WithFields(logrus.Fields{
		"result": result.Identifier(),
		"golden": golden.Identifier(),
	})

	// Reset so re-runs never leave stale artifacts from a comparison against
	// a different golden.
	if err := os.RemoveAll(outputDir); err != nil {
		return nil, fmt.Errorf("resetting comparison directory %s: %w", outputDir, err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating comparison directory %s: %w", outputDir, err)
	}

	onlyResults, onlyGoldens, differences, err := e.Compare(ctx, result, golden)
	if err != nil {
		return nil, err
	}

	if len(onlyResults) == 0 && len(onlyGoldens) == 0 && len(differences) == 0 {
		log.Info("comparison fully matching, nothing to persist")
		if err := os.Remove(outputDir); err != nil {
			log.WithError(err).Warn("failed to remove empty comparison directory")
		}
		return nil, nil
	}

	e.renderArtifacts(ctx, log, differences, outputDir)

	distances := make(map[string]float64, len(differences))
	for _, diff := range differences {
		if diff.Err != nil || diff.Distance < 0 {
			continue
		}
		distances[diff.FullyQualifiedName()] = diff.Distance
	}

	sum, err := summary.New(result.Identifier(), golden.Identifier(), onlyResults, onlyGoldens, distances)
	if err != nil {
		return nil, err
	}

	if err := sum.Write(filepath.Join(outputDir, summary.Filename)); err != nil {
		return nil, err
	}

	log.WithField("output", outputDir).Info("comparison summary written")

	return sum, nil
}

// computeDistances invokes the distance backend for every test present on
// both sides, bounded by the configured concurrency.
func (e *Engine) computeDistances(ctx context.Context, result, golden *resultset.Set) []Difference {
	type distanceJob struct {
		index int
		diff  Difference
	}

	var pending []Difference

	suites := make([]string, 0, len(result.Suites))
	for suite := range result.Suites {
		suites = append(suites, suite)
	}
	sort.Strings(suites)

	for _, suite := range suites {
		goldenCases := golden.Suites[suite]

		cases := make([]string, 0, len(result.Suites[suite]))
		for testCase := range result.Suites[suite] {
			cases = append(cases, testCase)
		}
		sort.Strings(cases)

		for _, testCase := range cases {
			goldenArtifact, ok := goldenCases[testCase]
			if !ok {
				continue
			}

			pending = append(pending, Difference{
				Suite:          suite,
				TestCase:       testCase,
				ResultArtifact: result.Suites[suite][testCase],
				GoldenArtifact: goldenArtifact,
				Distance:       DistanceNotComputed,
			})
		}
	}

	if len(pending) == 0 {
		return nil
	}

	e.log.WithField("tests", len(pending)).Info("comparing image files (this may take some time)")

	differences := make([]Difference, len(pending))
	jobs := make(chan distanceJob, len(pending))

	var wg sync.WaitGroup
	for i := 0; i < e.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for job := range jobs {
				diff := job.diff
				distance, err := e.distancer.Distance(ctx, diff.ResultArtifact, diff.GoldenArtifact)
				if err != nil {
					e.log.WithError(err).WithField("test", diff.FullyQualifiedName()).Warn("distance computation failed, marking unresolved")
					diff.Err = err
					diff.Distance = DistanceNotComputed
				} else {
					diff.Distance = distance
				}

				// Each worker writes to a unique index.
				differences[job.index] = diff
			}
		}()
	}

	for i, diff := range pending {
		jobs <- distanceJob{index: i, diff: diff}
	}
	close(jobs)

	wg.Wait()

	return differences
}

// renderArtifacts materializes diff images for every resolved difference at
// or above the threshold. Renderer failures are isolated per test.
func (e *Engine) renderArtifacts(ctx context.Context, log logrus.FieldLogger, differences []Difference, outputDir string) {
	for _, diff := range differences {
		name := diff.FullyQualifiedName()

		if diff.Err != nil {
			log.WithField("test", name).Warn("skipping diff image for unresolved test")
			continue
		}

		if diff.Distance < e.threshold {
			log.WithFields(logrus.Fields{
				"test":     name,
				"distance": diff.Distance,
			}).Debug("distance below threshold, not generating diff image")
			continue
		}

		log.WithField("test", name).Info("generating diff image")

		outPath := filepath.Join(outputDir, diff.artifactRelPath())
		if _, _, _, err := e.renderer.Render(ctx, diff.ResultArtifact, diff.GoldenArtifact, outPath); err != nil {
			log.WithError(err).WithField("test", name).Warn("failed to render diff image")
		}
	}
}

// lockPair serializes output-directory resets for one (result, golden) pair
// when comparisons run concurrently within the same output root.
func (e *Engine) lockPair(outputDir string) func() {
	e.pairMu.Lock()
	mu, ok := e.pairLocks[outputDir]
	if !ok {
		mu = &sync.Mutex{}
		e.pairLocks[outputDir] = mu
	}
	e.pairMu.Unlock()

	mu.Lock()

	return mu.Unlock
}

func sortedDifference(a, b map[string]struct{}) []string {
	var only []string
	for name := range a {
		if _, ok := b[name]; !ok {
			only = append(only, name)
		}
	}
	sort.Strings(only)

	return only
}
