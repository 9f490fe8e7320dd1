// Package config loads fuel settings from defaults, an optional YAML file
// and FUEL_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rdo34/fuel/internal/store"
)

// DefaultTankCapacity is the fill volume above which a submission needs
// explicit confirmation.
const DefaultTankCapacity = 5.0

// Config is the top-level configuration.
type Config struct {
	DataDir      string  `yaml:"data_dir"`
	Backend      string  `yaml:"backend"`
	TankCapacity float64 `yaml:"tank_capacity"`
	Placeholder  string  `yaml:"placeholder"`
	Log          Log     `yaml:"log"`
}

type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns built-in defaults. DataDir is left empty and resolved by
// Resolve.
func Default() Config {
	return Config{
		Backend:      store.BackendPebble,
		TankCapacity: DefaultTankCapacity,
		Placeholder:  "-",
		Log:          Log{Level: "info"},
	}
}

// Load reads configuration from a YAML file over the defaults. A missing
// file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return cfg, nil
}

// DefaultPath is config.yaml inside the resolved data directory.
func DefaultPath() string {
	dir, err := store.ResolveDataDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Resolve fills derived defaults: the data directory and the log file.
func (c *Config) Resolve() error {
	if c.DataDir == "" {
		dir, err := store.ResolveDataDir()
		if err != nil {
			return fmt.Errorf("resolve data dir: %w", err)
		}
		c.DataDir = dir
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(c.DataDir, "fuel.log")
	}
	return nil
}

// Validate checks field values.
func (c Config) Validate() error {
	if c.TankCapacity <= 0 {
		return fmt.Errorf("tank_capacity must be positive, got %v", c.TankCapacity)
	}
	ok := false
	for _, b := range store.Backends {
		if strings.EqualFold(c.Backend, b) {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("backend %q: must be one of %v", c.Backend, store.Backends)
	}
	return nil
}
