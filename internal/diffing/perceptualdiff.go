package diffing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultPerceptualDiffBinary is used when no explicit binary path is
// configured.
const DefaultPerceptualDiffBinary = "perceptualdiff"

var pixelsDifferentRe = regexp.MustCompile(`(\d+) pixels are different`)

// ExternalToolError indicates that invoking an external comparison tool
// failed. The affected test is marked unresolved; the rest of the comparison
// proceeds.
type ExternalToolError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ExternalToolError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("invoking %s: %v: %s", e.Tool, e.Err, e.Stderr)
	}

	return fmt.Sprintf("invoking %s: %v", e.Tool, e.Err)
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}

// PerceptualDiff wraps the external perceptualdiff binary as both a
// Distancer and an ArtifactRenderer.
type PerceptualDiff struct {
	binary string
	log    logrus.FieldLogger
}

// NewPerceptualDiff creates a wrapper around the perceptualdiff binary at
// the given path.
func NewPerceptualDiff(binary string, log logrus.FieldLogger) *PerceptualDiff {
	if binary == "" {
		binary = DefaultPerceptualDiffBinary
	}

	return &PerceptualDiff{
		binary: binary,
		log:    log.WithField("component", "perceptualdiff"),
	}
}

// Render implements ArtifactRenderer. A non-zero exit code means the tool
// detected a difference and is not reported as an error.
func (p *PerceptualDiff) Render(
	ctx context.Context,
	resultPath, goldenPath, outPath string,
) (int, string, string, error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return -1, "", "", &ExternalToolError{Tool: p.binary, Err: err}
	}

	//nolint:gosec // G204: binary path comes from configuration
	cmd := exec.CommandContext(ctx, p.binary, "-output", outPath, resultPath, goldenPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), stdout.String(), stderr.String(), nil
		}

		return -1, stdout.String(), stderr.String(), &ExternalToolError{
			Tool:   p.binary,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return 0, stdout.String(), stderr.String(), nil
}

// Distance implements Distancer. The tool's "N pixels are different" stdout
// line supplies the scalar; indistinguishable images score 0.
func (p *PerceptualDiff) Distance(ctx context.Context, resultPath, goldenPath string) (float64, error) {
	scratchDir, err := os.MkdirTemp("", "pgraph-pdiff-")
	if err != nil {
		return DistanceNotComputed, &ExternalToolError{Tool: p.binary, Err: err}
	}
	defer os.RemoveAll(scratchDir)

	exitCode, stdout, stderr, err := p.Render(ctx, resultPath, goldenPath, filepath.Join(scratchDir, "diff.png"))
	if err != nil {
		return DistanceNotComputed, err
	}

	if exitCode == 0 {
		return 0, nil
	}

	distance, ok := parsePixelsDifferent(stdout)
	if !ok {
		return DistanceNotComputed, &ExternalToolError{
			Tool:   p.binary,
			Stderr: stderr,
			Err:    fmt.Errorf("no difference count in output"),
		}
	}

	return distance, nil
}

// parsePixelsDifferent extracts the differing-pixel count from perceptualdiff
// stdout. The last matching line wins.
func parsePixelsDifferent(stdout string) (float64, bool) {
	distance := float64(DistanceNotComputed)
	found := false

	for _, line := range strings.Split(stdout, "\n") {
		match := pixelsDifferentRe.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		pixels, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}

		distance = pixels
		found = true
	}

	return distance, found
}
