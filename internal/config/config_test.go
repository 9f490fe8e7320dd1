package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "pebble", cfg.Backend)
	assert.Equal(t, 5.0, cfg.TankCapacity)
	assert.Equal(t, "-", cfg.Placeholder)
	assert.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("backend: sqlite\ntank_capacity: 42.5\nlog:\n  level: debug\n")
	require.NoError(t, os.WriteFile(file, data, 0o644))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, 42.5, cfg.TankCapacity)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "-", cfg.Placeholder, "unset keys keep defaults")
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadBadYAML(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("tank_capacity: [oops"), 0o644))
	_, err := Load(file)
	assert.ErrorContains(t, err, "parse config")
}

func TestFromEnv(t *testing.T) {
	t.Setenv("FUEL_BACKEND", "file")
	t.Setenv("FUEL_TANK_CAPACITY", "60")
	t.Setenv("FUEL_DATA_DIR", "/data/fuel")
	t.Setenv("FUEL_LOG_LEVEL", "warn")
	t.Setenv("FUEL_PLACEHOLDER", "n/a")

	cfg := Default()
	FromEnv(&cfg)
	assert.Equal(t, "file", cfg.Backend)
	assert.Equal(t, 60.0, cfg.TankCapacity)
	assert.Equal(t, "/data/fuel", cfg.DataDir)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "n/a", cfg.Placeholder)
}

func TestFromEnv_IgnoresBadNumber(t *testing.T) {
	t.Setenv("FUEL_TANK_CAPACITY", "lots")
	cfg := Default()
	FromEnv(&cfg)
	assert.Equal(t, DefaultTankCapacity, cfg.TankCapacity)
}

func TestResolve(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/var/fuel"
	require.NoError(t, cfg.Resolve())
	assert.Equal(t, filepath.Join("/var/fuel", "fuel.log"), cfg.Log.File)

	t.Setenv("FUEL_DATA_DIR", "/env/fuel")
	cfg = Default()
	require.NoError(t, cfg.Resolve())
	assert.Equal(t, "/env/fuel", cfg.DataDir)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.TankCapacity = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Backend = "redis"
	assert.ErrorContains(t, cfg.Validate(), "backend")

	cfg = Default()
	cfg.Backend = "SQLite"
	assert.NoError(t, cfg.Validate())
}
