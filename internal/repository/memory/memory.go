// Package memory provides a map-backed repository.KeyValueStore.
package memory

import (
	"context"
	"sync"

	"transitmap/internal/repository"
)

// Store keeps values in process memory
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty store
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get returns a copy of the value under key
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set stores a copy of value under key
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	s.mu.Lock()
	s.data[key] = v
	s.mu.Unlock()
	return nil
}

// Delete removes key
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of keys held
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

var _ repository.KeyValueStore = (*Store)(nil)
