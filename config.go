package docparse

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/docparse/code"
	"github.com/tsawler/docparse/formula"
	"github.com/tsawler/docparse/imageparse"
	"github.com/tsawler/docparse/lists"
	"github.com/tsawler/docparse/manager"
	"github.com/tsawler/docparse/tables"
)

// Config aggregates the per-package configurations.
type Config struct {
	Manager manager.Config    `yaml:"manager"`
	Tables  tables.Config     `yaml:"tables"`
	Lists   lists.Config      `yaml:"lists"`
	Code    code.Config       `yaml:"code"`
	Formula formula.Config    `yaml:"formula"`
	Image   imageparse.Config `yaml:"image"`
}

// DefaultConfig returns the default configuration for every package.
func DefaultConfig() Config {
	return Config{
		Manager: manager.DefaultConfig(),
		Tables:  tables.DefaultConfig(),
		Lists:   lists.DefaultConfig(),
		Code:    code.DefaultConfig(),
		Formula: formula.DefaultConfig(),
		Image:   imageparse.DefaultConfig(),
	}
}

// LoadConfig reads a YAML config file over the defaults, so a partial
// file only overrides what it names.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("load config: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("load config %s: %w", path, err)
	}
	return config, nil
}
