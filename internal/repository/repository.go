package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key has never been set
var ErrNotFound = errors.New("key not found")

// KeyValueStore is the durable store layout versions are written to.
// Writes are last-writer-wins; there are no transactions across keys.
type KeyValueStore interface {
	// Get returns the value stored under key, or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources
	Close() error
}
