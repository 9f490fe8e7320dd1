package store

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by KV.Get when the key holds no value.
var ErrNotFound = errors.New("store: key not found")

// KV is a local key-value store holding whole serialized values per key.
// Set must replace the value atomically.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendPebble = "pebble"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Backends lists the valid backend names.
var Backends = []string{BackendPebble, BackendFile, BackendSQLite, BackendMemory}

// Open opens the named backend rooted at dir.
func Open(backend, dir string, logger *slog.Logger) (KV, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(backend) {
	case BackendPebble, "":
		return OpenPebble(filepath.Join(dir, "pebble"), logger)
	case BackendFile:
		return NewFSStore(dir)
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dir, "fuel.db"))
	case BackendMemory:
		return NewMemStore(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q: use one of %s", backend, strings.Join(Backends, ", "))
	}
}
