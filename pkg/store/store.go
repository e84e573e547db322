// Package store provides the persistence backends a client can mirror its bearer
// token into.
//
// Two contracts exist, matching the two kinds of browser storage the token has
// traditionally lived in:
//
//   - CookieStore keeps raw string values together with cookie attributes.
//   - LocalStorage is a plain key/value item store; callers decide the encoding.
//
// Backends:
//
//	store.NewMemoryCookies()            // in-process cookies
//	store.NewJarCookies(baseURL)        // cookies in a net/http cookie jar
//	store.NewMemoryStorage()            // in-process items
//	store.NewFileStorage(path)          // items in a JSON file
//	store.NewSQLiteStorage(path)        // items in a SQLite database
package store

import (
	"net/http"
	"time"
)

// CookieOptions are the attributes a cookie is written and removed with
type CookieOptions struct {
	Path     string
	Domain   string
	Expires  time.Time
	MaxAge   int
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

// CookieStore is a cookie-like key/value store
type CookieStore interface {
	// Get returns the value of the named cookie and whether it exists
	Get(name string) (string, bool, error)

	// Set writes the named cookie
	Set(name, value string, opts CookieOptions) error

	// Remove deletes the named cookie. The options must match the ones it was
	// written with for path- or domain-scoped stores.
	Remove(name string, opts CookieOptions) error
}

// LocalStorage is a local-storage-like key/value store
type LocalStorage interface {
	// GetItem returns the stored value and whether the key exists
	GetItem(key string) (string, bool, error)

	// SetItem stores value under key, replacing any previous value
	SetItem(key, value string) error

	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(key string) error
}
