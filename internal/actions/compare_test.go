package actions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/abaire/pgraph-compare/internal/config"
	"github.com/abaire/pgraph-compare/internal/resultset"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return log
}

func TestBuildEngineBackends(t *testing.T) {
	t.Parallel()

	log := quietLogger()

	engine, err := BuildEngine(log, &config.Config{DistanceBackend: "pixel", Concurrency: 1})
	require.NoError(t, err)
	require.NotNil(t, engine)

	engine, err = BuildEngine(log, &config.Config{DistanceBackend: "perceptualdiff", Concurrency: 1})
	require.NoError(t, err)
	require.NotNil(t, engine)

	_, err = BuildEngine(log, &config.Config{DistanceBackend: "ssim", Concurrency: 1})
	require.Error(t, err)
	require.Contains(t, err.Error(), "ssim")
}

func TestResolveGoldenRoot(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		CachePath:            "cache",
		HardwareGoldenMarker: "nxdk_pgraph_tests_golden_results",
	}

	root, hardware := ResolveGoldenRoot(cfg, "")
	require.Equal(t, filepath.Join("cache", "nxdk_pgraph_tests_golden_results", "results"), root)
	require.True(t, hardware)

	root, hardware = ResolveGoldenRoot(cfg, "/data/nxdk_pgraph_tests_golden_results/results")
	require.Equal(t, "/data/nxdk_pgraph_tests_golden_results/results", root)
	require.True(t, hardware)

	root, hardware = ResolveGoldenRoot(cfg, "/data/goldens")
	require.Equal(t, "/data/goldens", root)
	require.False(t, hardware)
}

func TestRequireDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, RequireDirectory(dir, "results"))

	err := RequireDirectory(filepath.Join(dir, "absent"), "results")
	require.Error(t, err)
	require.Contains(t, err.Error(), "results")

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	require.Error(t, RequireDirectory(file, "golden"))
}

func writeRun(t *testing.T, root, version, descriptor string) string {
	t.Helper()

	runDir := filepath.Join(root, version, "Linux_x86_64", "4.0.0", "4.30")
	require.NoError(t, os.MkdirAll(filepath.Join(runDir, "Fog"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(runDir, resultset.ManifestFilename), []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(runDir, "machine_info.txt"), []byte(descriptor), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(runDir, "Fog", "flat.png"), []byte("x"), 0o600))

	return runDir
}

func TestSelectGoldensHardware(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Fog"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Fog", "flat.png"), []byte("x"), 0o600))

	goldens, err := SelectGoldens(quietLogger(), "machine_info.txt", "", root, true)
	require.NoError(t, err)
	require.True(t, goldens.Hardware)
	require.Equal(t, resultset.HardwareIdentifier, goldens.Identifier())
}

func TestSelectGoldensDirectRunDirectory(t *testing.T) {
	t.Parallel()

	// A golden root with no manifests anywhere is treated as the run itself.
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Fog"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Fog", "flat.png"), []byte("x"), 0o600))

	goldens, err := SelectGoldens(quietLogger(), "machine_info.txt", "", root, false)
	require.NoError(t, err)
	require.Contains(t, goldens.Suites, "Fog")
}

func TestSelectGoldensSingleCandidate(t *testing.T) {
	t.Parallel()

	goldenRoot := t.TempDir()
	runDir := writeRun(t, goldenRoot, "xemu-0.8.14", "GL_VERSION: 4.0.0\n")

	// One discovered run is used directly, without consulting the matcher or
	// the result set's machine descriptor.
	goldens, err := SelectGoldens(quietLogger(), "machine_info.txt", "", goldenRoot, false)
	require.NoError(t, err)
	require.Equal(t, resultset.KeyFromPath(runDir), goldens.Key)
}

func TestSelectGoldensMatchesAmongCandidates(t *testing.T) {
	t.Parallel()

	resultsRoot := t.TempDir()
	resultRun := writeRun(t, resultsRoot, "xemu-0.8.15", "GL_VERSION: 4.0.0\n")

	goldenRoot := t.TempDir()
	openGL := writeRun(t, goldenRoot, "xemu-0.8.14-opengl", "GL_VERSION: 4.0.0\n")
	writeRun(t, goldenRoot, "xemu-0.8.14-vulkan", "- VK_KHR_swapchain\n")

	goldens, err := SelectGoldens(quietLogger(), "machine_info.txt", resultRun, goldenRoot, false)
	require.NoError(t, err)
	require.Equal(t, resultset.KeyFromPath(openGL), goldens.Key)
}

func TestSelectGoldensExcludesCandidatesWithoutDescriptor(t *testing.T) {
	t.Parallel()

	resultsRoot := t.TempDir()
	resultRun := writeRun(t, resultsRoot, "xemu-0.8.15", "GL_VERSION: 4.0.0\n")

	goldenRoot := t.TempDir()
	healthy := writeRun(t, goldenRoot, "xemu-0.8.14-a", "GL_VERSION: 4.0.0\n")
	broken := writeRun(t, goldenRoot, "xemu-0.8.14-b", "GL_VERSION: 4.0.0\n")
	require.NoError(t, os.Remove(filepath.Join(broken, "machine_info.txt")))

	goldens, err := SelectGoldens(quietLogger(), "machine_info.txt", resultRun, goldenRoot, false)
	require.NoError(t, err)
	require.Equal(t, resultset.KeyFromPath(healthy), goldens.Key)
}
