package actions

import (
	"fmt"

	"github.com/abaire/pgraph-compare/internal/config"
)

// ConfigFilename is the optional settings file looked up in the working
// directory.
const ConfigFilename = "pgraph-compare.yaml"

// LoadConfig loads env-based configuration with the optional YAML overrides
// applied.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ApplyFile(ConfigFilename); err != nil {
		return nil, err
	}

	return cfg, nil
}
