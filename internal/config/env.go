package config

import (
	"os"
	"strconv"
)

// FromEnv overlays FUEL_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("FUEL_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("FUEL_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("FUEL_TANK_CAPACITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.TankCapacity = f
		}
	}
	if v := os.Getenv("FUEL_PLACEHOLDER"); v != "" {
		cfg.Placeholder = v
	}
	if v := os.Getenv("FUEL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FUEL_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}
