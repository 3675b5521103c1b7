package summary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryRecordAndLookup(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Record("xemu-0.8.15/Linux_x86_64/4.0.0/4.30", "/goldens/opengl")

	golden, ok := registry.Golden("xemu-0.8.15/Linux_x86_64/4.0.0/4.30")
	require.True(t, ok)
	require.Equal(t, "/goldens/opengl", golden)

	_, ok = registry.Golden("unknown")
	require.False(t, ok)

	require.Equal(t, 1, registry.Len())
}

func TestRegistrySaveAndLoad(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Record("run-a", "/goldens/a")
	registry.Record("run-b", "/goldens/b")

	path := filepath.Join(t.TempDir(), RegistryFilename)
	require.NoError(t, registry.Save(path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	require.Equal(t, registry.Snapshot(), loaded.Snapshot())
}

func TestRegistrySaveSortsKeys(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Record("zeta", "/goldens/z")
	registry.Record("alpha", "/goldens/a")

	path := filepath.Join(t.TempDir(), RegistryFilename)
	require.NoError(t, registry.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	expected := `{
  "alpha": "/goldens/a",
  "zeta": "/goldens/z"
}
`
	require.Equal(t, expected, string(data))
}

func TestLoadRegistryMissingFile(t *testing.T) {
	t.Parallel()

	registry, err := LoadRegistry(filepath.Join(t.TempDir(), RegistryFilename))
	require.NoError(t, err)
	require.Zero(t, registry.Len())
}

func TestLoadRegistryMalformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), RegistryFilename)
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := LoadRegistry(path)
	require.Error(t, err)

	var serErr *SerializationError
	require.ErrorAs(t, err, &serErr)
}

func TestRegistrySnapshotIsACopy(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Record("run-a", "/goldens/a")

	snapshot := registry.Snapshot()
	snapshot["run-a"] = "mutated"

	golden, ok := registry.Golden("run-a")
	require.True(t, ok)
	require.Equal(t, "/goldens/a", golden)
}
