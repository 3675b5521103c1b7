// Package config handles configuration loading and management
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	DiffThreshold        float64
	DistanceBackend      string
	PerceptualDiffBinary string
	Concurrency          int
	MachineInfoFilename  string
	HardwareGoldenMarker string
	OutputDir            string
	CachePath            string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// It's okay if the file doesn't exist
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		DistanceBackend:      getEnv("PGRAPH_DISTANCE_BACKEND", "pixel"),
		PerceptualDiffBinary: getEnv("PGRAPH_PERCEPTUALDIFF", "perceptualdiff"),
		MachineInfoFilename:  getEnv("PGRAPH_MACHINE_INFO", "machine_info.txt"),
		HardwareGoldenMarker: getEnv("PGRAPH_HW_GOLDEN_MARKER", "nxdk_pgraph_tests_golden_results"),
		OutputDir:            getEnv("PGRAPH_OUTPUT_DIR", "compare-results"),
		CachePath:            getEnv("PGRAPH_CACHE_PATH", "cache"),
	}

	threshold, err := strconv.ParseFloat(getEnv("PGRAPH_DIFF_THRESHOLD", "0.00001"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PGRAPH_DIFF_THRESHOLD: %w", err)
	}
	cfg.DiffThreshold = threshold

	concurrency, err := strconv.Atoi(getEnv("PGRAPH_CONCURRENCY", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid PGRAPH_CONCURRENCY: %w", err)
	}
	cfg.Concurrency = concurrency

	return cfg, nil
}

// fileOverrides mirrors the optional pgraph-compare.yaml settings file.
// Unset fields keep their environment-derived values.
type fileOverrides struct {
	DiffThreshold        *float64 `yaml:"diff_threshold"`
	DistanceBackend      *string  `yaml:"distance_backend"`
	PerceptualDiffBinary *string  `yaml:"perceptualdiff"`
	Concurrency          *int     `yaml:"concurrency"`
	MachineInfoFilename  *string  `yaml:"machine_info"`
	HardwareGoldenMarker *string  `yaml:"hw_golden_marker"`
	OutputDir            *string  `yaml:"output_dir"`
	CachePath            *string  `yaml:"cache_path"`
}

// ApplyFile overlays settings from a YAML file onto the config. A missing
// file is not an error.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	var overrides fileOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if overrides.DiffThreshold != nil {
		c.DiffThreshold = *overrides.DiffThreshold
	}
	if overrides.DistanceBackend != nil {
		c.DistanceBackend = *overrides.DistanceBackend
	}
	if overrides.PerceptualDiffBinary != nil {
		c.PerceptualDiffBinary = *overrides.PerceptualDiffBinary
	}
	if overrides.Concurrency != nil {
		c.Concurrency = *overrides.Concurrency
	}
	if overrides.MachineInfoFilename != nil {
		c.MachineInfoFilename = *overrides.MachineInfoFilename
	}
	if overrides.HardwareGoldenMarker != nil {
		c.HardwareGoldenMarker = *overrides.HardwareGoldenMarker
	}
	if overrides.OutputDir != nil {
		c.OutputDir = *overrides.OutputDir
	}
	if overrides.CachePath != nil {
		c.CachePath = *overrides.CachePath
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) String() string {
	return fmt.Sprintf(`Current Configuration:
======================
Diff Threshold:       %g
Distance Backend:     %s
PerceptualDiff:       %s
Concurrency:          %d
Machine Info File:    %s
HW Golden Marker:     %s
Output Directory:     %s
Cache Path:           %s`,
		c.DiffThreshold,
		c.DistanceBackend,
		c.PerceptualDiffBinary,
		c.Concurrency,
		c.MachineInfoFilename,
		c.HardwareGoldenMarker,
		c.OutputDir,
		c.CachePath,
	)
}
