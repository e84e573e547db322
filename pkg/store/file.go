package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// FileStorage is a LocalStorage kept as a JSON object in a single file. The file
// is read on every access and rewritten on every change, so separate processes
// sharing the path see each other's writes.
type FileStorage struct {
	path string
	mu   sync.Mutex
}

// NewFileStorage creates a file-backed item store at path. The file is created
// on the first write.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Path returns the file the items are kept in
func (f *FileStorage) Path() string {
	return f.path
}

// GetItem returns the value stored under key
func (f *FileStorage) GetItem(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := items[key]
	return v, ok, nil
}

// SetItem stores value under key
func (f *FileStorage) SetItem(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return err
	}
	items[key] = value
	return f.save(items)
}

// RemoveItem deletes key
func (f *FileStorage) RemoveItem(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	return f.save(items)
}

func (f *FileStorage) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, errors.Wrap(err, "failed to read storage file")
	}

	items := make(map[string]string)
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal storage file")
	}
	return items, nil
}

func (f *FileStorage) save(items map[string]string) error {
	// Create directory if needed
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return errors.Wrap(err, "failed to create storage directory")
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal storage file")
	}

	// Write to file with restrictive permissions
	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return errors.Wrap(err, "failed to write storage file")
	}
	return nil
}
