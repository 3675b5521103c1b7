// Package resultset discovers rendered test output on disk and normalizes it
// into suite and test-case mappings keyed by the run that produced them.
package resultset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Directory names that never contain test artifacts and are skipped during
// discovery.
const (
	perceptualDiffDirName = "perceptualdiff"
	scriptsDirName        = "scripts"
)

// ManifestFilename marks a directory as the root of one test run.
const ManifestFilename = "results.json"

// DiscoveryError indicates that a results root could not be read.
type DiscoveryError struct {
	Root string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovering results under %s: %v", e.Root, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// Key identifies the run that produced a result set. It is built once from
// the last four segments of the run directory and passed by value from then
// on; nothing downstream re-derives identity from path strings.
type Key struct {
	EmulatorVersion string
	PlatformInfo    string
	APIVersion      string
	ShadingLanguage string
}

// HardwareKey is the sentinel key used for real-hardware golden captures.
var HardwareKey = Key{
	EmulatorVersion: "Xbox",
	PlatformInfo:    "Xbox",
	APIVersion:      "DirectX",
	ShadingLanguage: "nv2a",
}

// HardwareIdentifier names the real-hardware golden set in summaries.
const HardwareIdentifier = "Xbox_Hardware"

// KeyFromPath derives a Key from the last four segments of dir, interpreted
// right-to-left as shading language, API version, platform info and emulator
// version.
func KeyFromPath(dir string) Key {
	segments := strings.Split(filepath.ToSlash(filepath.Clean(dir)), "/")

	segment := func(fromEnd int) string {
		idx := len(segments) - fromEnd
		if idx < 0 {
			return ""
		}
		return segments[idx]
	}

	return Key{
		EmulatorVersion: segment(4),
		PlatformInfo:    segment(3),
		APIVersion:      segment(2),
		ShadingLanguage: segment(1),
	}
}

// RunIdentifier returns the colon-joined identifier for the run. The API and
// shading-language segments together form the graphics-info portion.
func (k Key) RunIdentifier() string {
	return fmt.Sprintf("%s:%s:%s:%s", k.EmulatorVersion, k.PlatformInfo, k.APIVersion, k.ShadingLanguage)
}

// OutputSubdirectory returns the relative directory under which comparison
// artifacts for this run are written.
func (k Key) OutputSubdirectory() string {
	return filepath.Join(k.EmulatorVersion, k.PlatformInfo, k.APIVersion, k.ShadingLanguage)
}

// FlattenedIdentifier returns the run identifier with colons replaced so it
// can be used as a single directory name.
func (k Key) FlattenedIdentifier() string {
	return strings.ReplaceAll(k.RunIdentifier(), ":", "__")
}

// Set is one parsed batch of rendered test output. Suites maps suite name to
// test-case name to artifact path. It is populated during the discovery walk
// and read-only afterwards.
type Set struct {
	Key      Key
	Root     string
	Hardware bool
	Suites   map[string]map[string]string
}

// Parse scans the run directory at root and returns its normalized result
// set. The root's last four path segments supply the run key.
func Parse(root string) (*Set, error) {
	s := &Set{
		Key:    KeyFromPath(root),
		Root:   root,
		Suites: make(map[string]map[string]string),
	}
	if err := s.scan(); err != nil {
		return nil, err
	}

	return s, nil
}

// ParseHardwareGoldens scans a real-hardware golden capture tree. The
// returned set carries the hardware sentinel key.
func ParseHardwareGoldens(root string) (*Set, error) {
	s := &Set{
		Key:      HardwareKey,
		Root:     root,
		Hardware: true,
		Suites:   make(map[string]map[string]string),
	}
	if err := s.scan(); err != nil {
		return nil, err
	}

	return s, nil
}

// Identifier names this set in summaries and registry entries.
func (s *Set) Identifier() string {
	if s.Hardware {
		return HardwareIdentifier
	}

	return s.Key.RunIdentifier()
}

// FlattenedTests returns the set of fully-qualified test names
// (suite:test-case, with spaces in suite names flattened to underscores).
func (s *Set) FlattenedTests() map[string]struct{} {
	tests := make(map[string]struct{})
	for suite, cases := range s.Suites {
		suiteName := strings.ReplaceAll(suite, " ", "_")
		for testCase := range cases {
			tests[suiteName+":"+testCase] = struct{}{}
		}
	}

	return tests
}

// scan walks the run directory. Leaf directories (no subdirectories) are
// suites; their files are test cases named by file stem. Dot-directories and
// reserved scratch directories are skipped.
func (s *Set) scan() error {
	info, err := os.Stat(s.Root)
	if err != nil {
		return &DiscoveryError{Root: s.Root, Err: err}
	}
	if !info.IsDir() {
		return &DiscoveryError{Root: s.Root, Err: fmt.Errorf("not a directory")}
	}

	walkErr := filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		suite := d.Name()
		if strings.HasPrefix(suite, ".") && path != s.Root {
			return filepath.SkipDir
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				// Not a leaf directory.
				return nil
			}
		}

		if suite == perceptualDiffDirName || suite == scriptsDirName {
			return nil
		}

		for _, entry := range entries {
			name := entry.Name()
			testCase := strings.TrimSuffix(name, filepath.Ext(name))
			if s.Suites[suite] == nil {
				s.Suites[suite] = make(map[string]string)
			}
			s.Suites[suite][testCase] = filepath.Join(path, name)
		}

		return nil
	})
	if walkErr != nil {
		return &DiscoveryError{Root: s.Root, Err: walkErr}
	}

	return nil
}
