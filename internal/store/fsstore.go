package store

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
)

// FSStore implements KV with one JSON file per key under a data root.
type FSStore struct {
	root string
}

var validKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// NewFSStore creates a store rooted at dir, creating it if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if dir == "" {
		return nil, errors.New("empty dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{root: dir}, nil
}

func (s *FSStore) keyPath(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", errors.New("store: invalid key " + key)
	}
	return filepath.Join(s.root, key+".json"), nil
}

// Get reads the file for key.
func (s *FSStore) Get(key string) ([]byte, error) {
	path, err := s.keyPath(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// Set atomically replaces the file for key.
func (s *FSStore) Set(key string, value []byte) error {
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.root, key+"-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

func (s *FSStore) Close() error { return nil }

var _ KV = (*FSStore)(nil)
