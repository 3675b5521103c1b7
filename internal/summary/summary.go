// Package summary serializes comparison outcomes into canonical, byte-stable
// artifacts consumed by downstream reporting.
package summary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// Filename is the summary artifact name within a comparison output
// directory.
const Filename = "summary.json"

// SerializationError indicates that a summary or registry artifact could not
// be written or read. This is fatal: downstream reporting depends on these
// artifacts.
type SerializationError struct {
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serializing %s: %v", e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// Summary is the persisted outcome of comparing one result set against one
// golden set. Test-name collections are sorted and pairwise disjoint.
type Summary struct {
	ResultIdentifier      string             `json:"result_identifier"`
	GoldenIdentifier      string             `json:"golden_identifier"`
	TestsWithoutGoldens   []string           `json:"tests_without_goldens"`
	GoldensWithoutResults []string           `json:"goldens_without_results"`
	TestsWithDifferences  map[string]float64 `json:"tests_with_differences"`
}

// New builds a summary, sorting the test-name collections and enforcing that
// they are disjoint from each other and from the distance mapping.
func New(
	resultIdentifier, goldenIdentifier string,
	testsWithoutGoldens, goldensWithoutResults []string,
	testsWithDifferences map[string]float64,
) (*Summary, error) {
	onlyResults := append([]string(nil), testsWithoutGoldens...)
	sort.Strings(onlyResults)

	onlyGoldens := append([]string(nil), goldensWithoutResults...)
	sort.Strings(onlyGoldens)

	distances := make(map[string]float64, len(testsWithDifferences))
	for name, distance := range testsWithDifferences {
		distances[name] = distance
	}

	s := &Summary{
		ResultIdentifier:      resultIdentifier,
		GoldenIdentifier:      goldenIdentifier,
		TestsWithoutGoldens:   ensureSlice(onlyResults),
		GoldensWithoutResults: ensureSlice(onlyGoldens),
		TestsWithDifferences:  distances,
	}

	if err := s.validateDisjoint(); err != nil {
		return nil, err
	}

	return s, nil
}

// Write persists the summary as canonical JSON: two-space indent, sorted
// object keys and sorted arrays, ASCII-only output, trailing newline.
func (s *Summary) Write(path string) error {
	// Marshal through a map so the top-level keys come out sorted like every
	// other object in the artifact.
	doc := map[string]any{
		"result_identifier":       s.ResultIdentifier,
		"golden_identifier":       s.GoldenIdentifier,
		"tests_without_goldens":   s.TestsWithoutGoldens,
		"goldens_without_results": s.GoldensWithoutResults,
		"tests_with_differences":  s.TestsWithDifferences,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &SerializationError{Path: path, Err: err}
	}

	if err := os.WriteFile(path, append(escapeNonASCII(data), '\n'), 0o644); err != nil {
		return &SerializationError{Path: path, Err: err}
	}

	return nil
}

// escapeNonASCII rewrites every non-ASCII rune as a \uXXXX escape so the
// artifact survives ASCII-only consumers unchanged. Valid JSON only carries
// such runes inside string values, where the escape form is equivalent.
func escapeNonASCII(data []byte) []byte {
	if !bytes.ContainsFunc(data, func(r rune) bool { return r >= utf8.RuneSelf }) {
		return data
	}

	var buf bytes.Buffer
	for _, r := range string(data) {
		switch {
		case r < utf8.RuneSelf:
			buf.WriteRune(r)
		case r > 0xFFFF:
			r1, r2 := utf16.EncodeRune(r)
			fmt.Fprintf(&buf, `\u%04x\u%04x`, r1, r2)
		default:
			fmt.Fprintf(&buf, `\u%04x`, r)
		}
	}

	return buf.Bytes()
}

// Load reads a previously written summary artifact.
func Load(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SerializationError{Path: path, Err: err}
	}

	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &SerializationError{Path: path, Err: err}
	}

	return &s, nil
}

func (s *Summary) validateDisjoint() error {
	seen := make(map[string]string)

	record := func(name, collection string) error {
		if existing, ok := seen[name]; ok {
			return fmt.Errorf("test %q appears in both %s and %s", name, existing, collection)
		}
		seen[name] = collection

		return nil
	}

	for _, name := range s.TestsWithoutGoldens {
		if err := record(name, "tests_without_goldens"); err != nil {
			return err
		}
	}
	for _, name := range s.GoldensWithoutResults {
		if err := record(name, "goldens_without_results"); err != nil {
			return err
		}
	}
	for name := range s.TestsWithDifferences {
		if err := record(name, "tests_with_differences"); err != nil {
			return err
		}
	}

	return nil
}

func ensureSlice(names []string) []string {
	if names == nil {
		return []string{}
	}

	return names
}
