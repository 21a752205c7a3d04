// Package store persists exported frames and session state behind a small
// key/value contract.
//
// Two implementations are provided: MemoryStore for the lifetime of a
// process and DirStore for one file per key under a directory. Both are
// safe for concurrent use.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNotFound is returned by Get for an absent key.
	ErrNotFound = errors.New("key not found")

	// ErrStoreFailure wraps every failure of the underlying storage.
	// It never invalidates frames already held in memory.
	ErrStoreFailure = errors.New("store failure")
)

// Store is the persistence contract used by the exporter and the session.
type Store interface {
	// Put stores blob under key, replacing any previous value.
	Put(ctx context.Context, key string, blob []byte) error

	// Get returns the blob for key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every key.
	Clear(ctx context.Context) error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,199}$`)

// ValidateKey rejects keys that are empty, too long, or not a plain file name.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: invalid key %q", ErrStoreFailure, key)
	}
	return nil
}
