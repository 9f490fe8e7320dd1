package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/cockroachdb/pebble"
)

// PebbleStore implements KV on a Pebble database. Every write is a
// single-key batch committed with a WAL sync.
type PebbleStore struct {
	inner *pebble.DB
}

// OpenPebble creates or opens a Pebble database in dir.
func OpenPebble(dir string, logger *slog.Logger) (*PebbleStore, error) {
	if dir == "" {
		return nil, errors.New("pebble: data dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	inner, err := pebble.Open(dir, &pebble.Options{Logger: pebbleLogger{logger.With("component", "pebble")}})
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", dir, err)
	}
	return &PebbleStore{inner: inner}, nil
}

// Get copies the value for key.
func (s *PebbleStore) Get(key string) ([]byte, error) {
	val, closer, err := s.inner.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), val...), nil
}

// Set writes key with a synced batch.
func (s *PebbleStore) Set(key string, value []byte) error {
	b := s.inner.NewBatch()
	defer b.Close()
	if err := b.Set([]byte(key), value, nil); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

func (s *PebbleStore) Close() error {
	if s == nil || s.inner == nil {
		return nil
	}
	return s.inner.Close()
}

// pebbleLogger routes Pebble's internal logging to slog. Pebble's own
// default writes to the standard logger, which would draw over the TUI.
type pebbleLogger struct {
	l *slog.Logger
}

func (p pebbleLogger) Infof(format string, args ...interface{}) {
	p.l.Debug(fmt.Sprintf(format, args...))
}

func (p pebbleLogger) Errorf(format string, args ...interface{}) {
	p.l.Error(fmt.Sprintf(format, args...))
}

func (p pebbleLogger) Fatalf(format string, args ...interface{}) {
	p.l.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}

var _ KV = (*PebbleStore)(nil)
