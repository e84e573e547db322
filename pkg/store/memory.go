package store

import "sync"

// MemoryCookies is an in-process CookieStore
type MemoryCookies struct {
	mu      sync.RWMutex
	values  map[string]string
	options map[string]CookieOptions
}

// NewMemoryCookies creates an empty in-process cookie store
func NewMemoryCookies() *MemoryCookies {
	return &MemoryCookies{
		values:  make(map[string]string),
		options: make(map[string]CookieOptions),
	}
}

// Get returns the named cookie
func (m *MemoryCookies) Get(name string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[name]
	return v, ok, nil
}

// Set writes the named cookie
func (m *MemoryCookies) Set(name, value string, opts CookieOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
	m.options[name] = opts
	return nil
}

// Remove deletes the named cookie
func (m *MemoryCookies) Remove(name string, opts CookieOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, name)
	delete(m.options, name)
	return nil
}

// Options returns the attributes the named cookie was last written with
func (m *MemoryCookies) Options(name string) (CookieOptions, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	opts, ok := m.options[name]
	return opts, ok
}

// MemoryStorage is an in-process LocalStorage
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryStorage creates an empty in-process item store
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

// GetItem returns the value stored under key
func (m *MemoryStorage) GetItem(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

// SetItem stores value under key
func (m *MemoryStorage) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

// RemoveItem deletes key
func (m *MemoryStorage) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
