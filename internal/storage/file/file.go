// Package file implements a storage port that keeps one JSON file per key in
// a directory, the server-side counterpart of browser local storage.
package file

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/xenking/restaurant-mis/internal/storage"
)

var (
	_ storage.Port   = (*Store)(nil)
	_ storage.Pinger = (*Store)(nil)
)

// Store persists documents as <dir>/<key>.json.
type Store struct {
	dir string
}

// New creates dir if needed and returns a Store rooted there.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "create storage dir %s", dir)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, filepath.Base(key)+".json")
}

// Load reads the file for key. A missing file yields nil data.
func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", key)
	}
	return data, nil
}

// Save writes data to a temporary file and renames it over the file for key,
// so readers never observe a partial document.
func (s *Store) Save(_ context.Context, key string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, filepath.Base(key)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "create temp file for %s", key)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "write %s", key)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close temp file for %s", key)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return errors.Wrapf(err, "replace %s", key)
	}
	return nil
}

// Ping checks that the storage directory is still present.
func (s *Store) Ping(_ context.Context) error {
	fi, err := os.Stat(s.dir)
	if err != nil {
		return errors.Wrap(err, "stat storage dir")
	}
	if !fi.IsDir() {
		return errors.Errorf("%s is not a directory", s.dir)
	}
	return nil
}
