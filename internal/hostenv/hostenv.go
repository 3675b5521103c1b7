// Package hostenv extracts the hardware and software fingerprint that
// produced a result set from the machine descriptor file the test runner
// leaves alongside its output.
package hostenv

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MachineInfoFilename is the default descriptor filename within a run
// directory.
const MachineInfoFilename = "machine_info.txt"

// unknownValue is used for descriptor fields that were not present.
const unknownValue = "any"

// vulkanCapabilityPrefix marks capability lines that only the Vulkan backend
// emits.
const vulkanCapabilityPrefix = "- VK_"

// RendererFamily is the graphics backend that produced a run. Cross-family
// comparisons are rarely meaningful, so matching weights this above
// everything else.
type RendererFamily string

const (
	// RendererOpenGL is the default renderer family.
	RendererOpenGL RendererFamily = "OpenGL"
	// RendererVulkan is inferred from Vulkan capability lines in the descriptor.
	RendererVulkan RendererFamily = "Vulkan"
)

// MalformedConfigError indicates that a machine descriptor was missing or
// unreadable. The affected candidate is excluded from baseline matching; the
// batch continues.
type MalformedConfigError struct {
	Path string
	Err  error
}

func (e *MalformedConfigError) Error() string {
	return fmt.Sprintf("reading machine descriptor %s: %v", e.Path, e.Err)
}

func (e *MalformedConfigError) Unwrap() error {
	return e.Err
}

// Environment is the parsed fingerprint of the machine that produced a run.
// All descriptor fields default to "any" when absent. The three *Key fields
// are derived from the run directory path and are used purely as matching
// tie-breakers.
type Environment struct {
	CPU                      string
	OSVersion                string
	GLVendor                 string
	GLRenderer               string
	GLVersion                string
	GLShadingLanguageVersion string
	Renderer                 RendererFamily

	ShadingLanguageKey string
	APIKey             string
	OSArchKey          string
}

// Extract reads the default machine descriptor from a run directory.
func Extract(dir string) (*Environment, error) {
	return ExtractFile(dir, MachineInfoFilename)
}

// ExtractFile reads the named machine descriptor from a run directory. Each
// recognized "Key: value" prefix sets one field; lines beginning with a
// Vulkan capability marker flip the renderer family; everything else is
// ignored.
func ExtractFile(dir, filename string) (*Environment, error) {
	env := &Environment{
		CPU:                      unknownValue,
		OSVersion:                unknownValue,
		GLVendor:                 unknownValue,
		GLRenderer:               unknownValue,
		GLVersion:                unknownValue,
		GLShadingLanguageVersion: unknownValue,
		Renderer:                 RendererOpenGL,
	}

	path := filepath.Join(dir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &MalformedConfigError{Path: path, Err: err}
	}

	for _, line := range strings.Split(string(data), "\n") {
		switch {
		case strings.HasPrefix(line, vulkanCapabilityPrefix):
			env.Renderer = RendererVulkan
		case strings.HasPrefix(line, "CPU:"):
			env.CPU = fieldValue(line, "CPU:")
		case strings.HasPrefix(line, "OS_Version:"):
			env.OSVersion = fieldValue(line, "OS_Version:")
		case strings.HasPrefix(line, "GL_VENDOR:"):
			env.GLVendor = fieldValue(line, "GL_VENDOR:")
		case strings.HasPrefix(line, "GL_RENDERER:"):
			env.GLRenderer = fieldValue(line, "GL_RENDERER:")
		case strings.HasPrefix(line, "GL_VERSION:"):
			env.GLVersion = fieldValue(line, "GL_VERSION:")
		case strings.HasPrefix(line, "GL_SHADING_LANGUAGE_VERSION:"):
			env.GLShadingLanguageVersion = fieldValue(line, "GL_SHADING_LANGUAGE_VERSION:")
		}
	}

	env.ShadingLanguageKey, env.APIKey, env.OSArchKey = tieBreakKeys(dir)

	return env, nil
}

func fieldValue(line, prefix string) string {
	return strings.TrimSpace(strings.TrimPrefix(line, prefix))
}

// tieBreakKeys derives the sanitized matching keys from the last three path
// segments of the run directory: shading language, API version and
// OS+architecture, right to left.
func tieBreakKeys(dir string) (shadingLanguage, api, osArch string) {
	segments := strings.Split(filepath.ToSlash(filepath.Clean(dir)), "/")

	segment := func(fromEnd int) string {
		idx := len(segments) - fromEnd
		if idx < 0 {
			return ""
		}
		return sanitize(segments[idx])
	}

	return segment(1), segment(2), segment(3)
}

func sanitize(segment string) string {
	return strings.ReplaceAll(strings.TrimSpace(segment), " ", "_")
}
