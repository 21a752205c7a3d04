package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const (
	tempPrefix = ".tmp-"

	// manifestName lists the keys the store has written. It is not a valid
	// key, so it never collides with a stored blob.
	manifestName = ".avatar-store.json"
)

// DirStore keeps one file per key under a root directory.
//
// The root may be shared with other files. The store only reads, deletes
// and clears keys it wrote itself, tracked in a manifest next to the
// blobs. Writes go to a temporary file that is renamed into place, so a
// reader never sees a half-written blob.
type DirStore struct {
	mu   sync.RWMutex
	root string
	keys map[string]struct{}
}

// NewDirStore creates root if needed and returns a store over it.
func NewDirStore(root string) (*DirStore, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: store directory cannot be empty", ErrStoreFailure)
	}
	if err := os.MkdirAll(root, 0o755); err != nil { // #nosec G301 - exported images are meant to be readable
		return nil, fmt.Errorf("%w: failed to create store directory: %v", ErrStoreFailure, err)
	}

	s := &DirStore{root: root, keys: make(map[string]struct{})}
	if err := s.loadManifest(); err != nil {
		return nil, err
	}
	return s, nil
}

// Root returns the directory the store writes to.
func (s *DirStore) Root() string {
	return s.root
}

// Path returns the file that holds key.
func (s *DirStore) Path(key string) string {
	return filepath.Join(s.root, key)
}

// Keys returns the stored keys in sorted order.
func (s *DirStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedKeys()
}

// Put writes blob to the key's file.
func (s *DirStore) Put(ctx context.Context, key string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeFile(key, blob); err != nil {
		return err
	}
	if _, ok := s.keys[key]; ok {
		return nil
	}
	s.keys[key] = struct{}{}
	if err := s.saveManifest(); err != nil {
		delete(s.keys, key)
		return err
	}
	return nil
}

// Get reads the key's file. Files the store did not write are reported
// as ErrNotFound.
func (s *DirStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.keys[key]; !ok {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrStoreFailure, key, err)
	}
	return data, nil
}

// Delete removes the key's file. Files the store did not write are left
// alone.
func (s *DirStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[key]; !ok {
		return nil
	}
	if err := os.Remove(s.Path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: failed to delete %s: %v", ErrStoreFailure, key, err)
	}
	delete(s.keys, key)
	return s.saveManifest()
}

// Clear removes every key the store wrote and any leftover temporary file.
// Other files and subdirectories are left alone.
func (s *DirStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for key := range s.keys {
		if err := os.Remove(s.Path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		delete(s.keys, key)
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		errs = append(errs, err)
	}
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}

	if err := s.saveManifest(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: failed to clear store: %v", ErrStoreFailure, errors.Join(errs...))
	}
	return nil
}

// writeFile atomically replaces the file name under root. Callers hold mu.
func (s *DirStore) writeFile(name string, blob []byte) error {
	tmp, err := os.CreateTemp(s.root, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", ErrStoreFailure, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to write %s: %v", ErrStoreFailure, name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to close %s: %v", ErrStoreFailure, name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil { // #nosec G302 - exported images are meant to be readable
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to chmod %s: %v", ErrStoreFailure, name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.root, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to store %s: %v", ErrStoreFailure, name, err)
	}
	return nil
}

func (s *DirStore) loadManifest() error {
	data, err := os.ReadFile(filepath.Join(s.root, manifestName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: failed to read manifest: %v", ErrStoreFailure, err)
	}

	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return fmt.Errorf("%w: corrupt manifest %s: %v", ErrStoreFailure, manifestName, err)
	}
	for _, key := range keys {
		if ValidateKey(key) == nil {
			s.keys[key] = struct{}{}
		}
	}
	return nil
}

// saveManifest records the current key set, removing the manifest once the
// store is empty. Callers hold mu.
func (s *DirStore) saveManifest() error {
	if len(s.keys) == 0 {
		err := os.Remove(filepath.Join(s.root, manifestName))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: failed to remove manifest: %v", ErrStoreFailure, err)
		}
		return nil
	}

	data, err := json.Marshal(s.sortedKeys())
	if err != nil {
		return fmt.Errorf("%w: failed to encode manifest: %v", ErrStoreFailure, err)
	}
	return s.writeFile(manifestName, data)
}

func (s *DirStore) sortedKeys() []string {
	keys := make([]string, 0, len(s.keys))
	for key := range s.keys {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
