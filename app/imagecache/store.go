package imagecache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Store is the filesystem capability the cache needs. Paths returned by
// Has and Put are relative to the manifest location, suitable for the
// manifest's image field.
type Store interface {
	Has(key string) (string, bool)
	Put(key, ext string, data []byte) (string, error)
	List() ([]string, error)
	Delete(name string) error
}

// DiskStore keeps cached images as a flat directory of
// content-hash-named files.
type DiskStore struct {
	dir    string
	prefix string
}

var _ Store = (*DiskStore)(nil)

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &DiskStore{
		dir:    dir,
		prefix: filepath.Base(dir),
	}, nil
}

// Has reports whether a file for the key already exists, regardless of
// extension.
func (s *DiskStore) Has(key string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(s.dir, key+".*"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return filepath.ToSlash(filepath.Join(s.prefix, filepath.Base(matches[0]))), true
}

func (s *DiskStore) Put(key, ext string, data []byte) (string, error) {
	name := key + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write cached image: %w", err)
	}
	return filepath.ToSlash(filepath.Join(s.prefix, name)), nil
}

func (s *DiskStore) List() ([]string, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache directory: %w", err)
	}

	names := make([]string, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func (s *DiskStore) Delete(name string) error {
	return os.Remove(filepath.Join(s.dir, name))
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string][]byte)}
}

func (s *MemStore) Has(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for name := range s.files {
		if strings.HasPrefix(name, key+".") {
			return "images/" + name, true
		}
	}
	return "", false
}

func (s *MemStore) Put(key, ext string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := key + ext
	s.files[name] = data
	return "images/" + name, nil
}

func (s *MemStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.files, name)
	return nil
}
