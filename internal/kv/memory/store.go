// Package memory keeps key-value pairs in process memory for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/daily-supplications/internal/kv"
)

// Store is a concurrency-safe in-memory kv.Store.
type Store struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ kv.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{data: make(map[string]string)}
}

// Get returns the stored value or kv.ErrNotFound.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return "", kv.ErrNotFound
	}
	return v, nil
}

// Set overwrites the value for key.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
