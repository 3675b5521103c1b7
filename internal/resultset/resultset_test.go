package resultset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func TestKeyFromPath(t *testing.T) {
	t.Parallel()

	key := KeyFromPath("/results/xemu-0.8.15/Linux_x86_64/4.0.0/4.30")

	require.Equal(t, "xemu-0.8.15", key.EmulatorVersion)
	require.Equal(t, "Linux_x86_64", key.PlatformInfo)
	require.Equal(t, "4.0.0", key.APIVersion)
	require.Equal(t, "4.30", key.ShadingLanguage)

	require.Equal(t, "xemu-0.8.15:Linux_x86_64:4.0.0:4.30", key.RunIdentifier())
	require.Equal(t, filepath.Join("xemu-0.8.15", "Linux_x86_64", "4.0.0", "4.30"), key.OutputSubdirectory())
	require.Equal(t, "xemu-0.8.15__Linux_x86_64__4.0.0__4.30", key.FlattenedIdentifier())
}

func TestParseBuildsSuiteMapping(t *testing.T) {
	t.Parallel()

	runDir := filepath.Join(t.TempDir(), "xemu-0.8.15", "Linux_x86_64", "4.0.0", "4.30")
	writeFile(t, filepath.Join(runDir, "Fog", "flat.png"))
	writeFile(t, filepath.Join(runDir, "Fog", "exp.png"))
	writeFile(t, filepath.Join(runDir, "Clear", "x.png"))
	writeFile(t, filepath.Join(runDir, "perceptualdiff", "scratch.png"))
	writeFile(t, filepath.Join(runDir, "scripts", "run.sh"))
	writeFile(t, filepath.Join(runDir, ".hidden", "secret.png"))

	set, err := Parse(runDir)
	require.NoError(t, err)

	require.Len(t, set.Suites, 2)
	require.Equal(t, filepath.Join(runDir, "Fog", "flat.png"), set.Suites["Fog"]["flat"])
	require.Equal(t, filepath.Join(runDir, "Fog", "exp.png"), set.Suites["Fog"]["exp"])
	require.Equal(t, filepath.Join(runDir, "Clear", "x.png"), set.Suites["Clear"]["x"])

	require.NotContains(t, set.Suites, "perceptualdiff")
	require.NotContains(t, set.Suites, "scripts")
	require.NotContains(t, set.Suites, ".hidden")
}

func TestParseMissingRoot(t *testing.T) {
	t.Parallel()

	_, err := Parse(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)

	var discoveryErr *DiscoveryError
	require.ErrorAs(t, err, &discoveryErr)
}

func TestFlattenedTestsReplacesSpaces(t *testing.T) {
	t.Parallel()

	set := &Set{
		Suites: map[string]map[string]string{
			"High Res": {"case1": "a.png"},
			"Fog":      {"flat": "b.png"},
		},
	}

	tests := set.FlattenedTests()
	require.Contains(t, tests, "High_Res:case1")
	require.Contains(t, tests, "Fog:flat")
	require.Len(t, tests, 2)
}

func TestParseHardwareGoldens(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Fog", "flat.png"))

	set, err := ParseHardwareGoldens(root)
	require.NoError(t, err)

	require.True(t, set.Hardware)
	require.Equal(t, HardwareKey, set.Key)
	require.Equal(t, HardwareIdentifier, set.Identifier())
	require.Equal(t, "Xbox:Xbox:DirectX:nv2a", set.Key.RunIdentifier())
	require.Contains(t, set.Suites, "Fog")
}

func TestDiscoverRuns(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b", "Linux", "4.0.0", "4.30", ManifestFilename))
	writeFile(t, filepath.Join(root, "a", "Linux", "4.0.0", "4.30", ManifestFilename))
	writeFile(t, filepath.Join(root, "c", "Linux", "4.0.0", "4.30", "no-manifest.png"))

	runs, err := DiscoverRuns(root)
	require.NoError(t, err)

	require.Equal(t, []string{
		filepath.Join(root, "a", "Linux", "4.0.0", "4.30"),
		filepath.Join(root, "b", "Linux", "4.0.0", "4.30"),
	}, runs)
}
