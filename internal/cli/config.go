package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/grapnel-db/grapnel/internal/bolt"
)

// Config is the YAML configuration for commands that talk to a database.
type Config struct {
	Connection bolt.Config `yaml:"connection"`
	Schemas    []string    `yaml:"schemas"`
	Strict     bool        `yaml:"strict_filters"`
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if len(cfg.Schemas) == 0 {
		return Config{}, fmt.Errorf("config %s: at least one schema file is required", path)
	}
	return cfg, nil
}
