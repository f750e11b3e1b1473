// Package memory implements an in-process storage port.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/restaurant-mis/internal/storage"
)

var _ storage.Port = (*Store)(nil)

// Store keeps documents in a map.
type Store struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// New returns an empty Store.
func New() *Store {
	return &Store{docs: make(map[string][]byte)}
}

// Load returns a copy of the document under key.
func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.docs[key]), nil
}

// Save stores a copy of data under key.
func (s *Store) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[key] = slices.Clone(data)
	return nil
}
