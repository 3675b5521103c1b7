package hostenv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeDescriptor(t *testing.T, dir, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, MachineInfoFilename), []byte(content), 0o600))
}

func TestExtractParsesDescriptor(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "xemu-0.8.15", "Linux_x86_64", "4.0.0", "4.30")
	writeDescriptor(t, dir, `CPU: AMD Ryzen 9 5950X
OS_Version: Ubuntu 24.04
GL_VENDOR: NVIDIA Corporation
GL_RENDERER: NVIDIA GeForce RTX 3080/PCIe/SSE2
GL_VERSION: 4.0.0 NVIDIA 550.54
GL_SHADING_LANGUAGE_VERSION: 4.30 NVIDIA
Some unrelated line
`)

	env, err := Extract(dir)
	require.NoError(t, err)

	require.Equal(t, "AMD Ryzen 9 5950X", env.CPU)
	require.Equal(t, "Ubuntu 24.04", env.OSVersion)
	require.Equal(t, "NVIDIA Corporation", env.GLVendor)
	require.Equal(t, "NVIDIA GeForce RTX 3080/PCIe/SSE2", env.GLRenderer)
	require.Equal(t, "4.0.0 NVIDIA 550.54", env.GLVersion)
	require.Equal(t, "4.30 NVIDIA", env.GLShadingLanguageVersion)
	require.Equal(t, RendererOpenGL, env.Renderer)
}

func TestExtractVulkanCapabilityFlipsRenderer(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "xemu-0.8.15", "Linux_x86_64", "1.3", "spirv")
	writeDescriptor(t, dir, `CPU: something
- VK_KHR_swapchain
- VK_KHR_surface
`)

	env, err := Extract(dir)
	require.NoError(t, err)
	require.Equal(t, RendererVulkan, env.Renderer)
}

func TestExtractDefaultsForAbsentFields(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "v", "p", "a", "s")
	writeDescriptor(t, dir, "")

	env, err := Extract(dir)
	require.NoError(t, err)

	require.Equal(t, "any", env.CPU)
	require.Equal(t, "any", env.OSVersion)
	require.Equal(t, "any", env.GLVendor)
	require.Equal(t, "any", env.GLRenderer)
	require.Equal(t, "any", env.GLVersion)
	require.Equal(t, "any", env.GLShadingLanguageVersion)
	require.Equal(t, RendererOpenGL, env.Renderer)
}

func TestExtractMissingDescriptor(t *testing.T) {
	t.Parallel()

	_, err := Extract(t.TempDir())
	require.Error(t, err)

	var malformedErr *MalformedConfigError
	require.ErrorAs(t, err, &malformedErr)
}

func TestTieBreakKeysFromPathSegments(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "xemu-0.8.15", "Linux x86_64", "4.0.0", "4.30")
	writeDescriptor(t, dir, "")

	env, err := Extract(dir)
	require.NoError(t, err)

	require.Equal(t, "4.30", env.ShadingLanguageKey)
	require.Equal(t, "4.0.0", env.APIKey)
	require.Equal(t, "Linux_x86_64", env.OSArchKey)
}
