// Package auth holds the API keys that gate back-office operations.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/go-faster/errors"
)

// ErrKeyNotFound is returned when no active key matches a hash.
var ErrKeyNotFound = errors.New("api key not found")

// APIKeyInfo holds the identity and permission data for a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

// HashKey returns the hex-encoded HMAC-SHA256 of key under pepper. Only
// hashes are stored or configured; raw keys never are.
func HashKey(pepper []byte, key string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// StaticRepository serves keys listed in configuration.
type StaticRepository struct {
	mu     sync.RWMutex
	byHash map[string]APIKeyInfo
}

var _ Repository = (*StaticRepository)(nil)

// NewStaticRepository indexes the given keys by hash.
func NewStaticRepository(keys ...APIKeyInfo) *StaticRepository {
	r := &StaticRepository{byHash: make(map[string]APIKeyInfo, len(keys))}
	for _, k := range keys {
		r.byHash[k.KeyHash] = k
	}
	return r
}

// FindByHash returns the key with the given hash.
func (r *StaticRepository) FindByHash(_ context.Context, hash string) (*APIKeyInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.byHash[hash]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return &info, nil
}
