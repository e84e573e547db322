package strapi

import (
	"encoding/json"
	stderrors "errors"

	"github.com/pkg/errors"

	internalTypes "github.com/kenng/qv-strapi/internal/types"
	"github.com/kenng/qv-strapi/pkg/store"
)

// StoreConfig selects the backends the token is mirrored to. A backend takes
// part only when its Store is set; with none set the token lives in memory only.
type StoreConfig struct {
	Cookie       *CookieConfig
	LocalStorage *LocalStorageConfig
}

// CookieConfig stores the raw token in a cookie
type CookieConfig struct {
	// Key is the cookie name, "jwt" by default
	Key string

	// Options are the cookie attributes, Path "/" by default
	Options store.CookieOptions

	Store store.CookieStore
}

// LocalStorageConfig stores the JSON-encoded token under a key
type LocalStorageConfig struct {
	// Key is the item key, "jwt" by default
	Key string

	Store store.LocalStorage
}

// DefaultStoreConfig returns the default configuration with the given backends
// plugged in; either may be nil
func DefaultStoreConfig(cookies store.CookieStore, local store.LocalStorage) *StoreConfig {
	return &StoreConfig{
		Cookie: &CookieConfig{
			Key:     internalTypes.DefaultStoreKey,
			Options: store.CookieOptions{Path: "/"},
			Store:   cookies,
		},
		LocalStorage: &LocalStorageConfig{
			Key:   internalTypes.DefaultStoreKey,
			Store: local,
		},
	}
}

// tokenStorage is the resolved StoreConfig; nil sections are not configured
type tokenStorage struct {
	cookie *CookieConfig
	local  *LocalStorageConfig
}

func newTokenStorage(cfg *StoreConfig) *tokenStorage {
	s := &tokenStorage{}
	if cfg == nil {
		return s
	}

	if cfg.Cookie != nil && cfg.Cookie.Store != nil {
		cookie := *cfg.Cookie
		if cookie.Key == "" {
			cookie.Key = internalTypes.DefaultStoreKey
		}
		if cookie.Options.Path == "" {
			cookie.Options.Path = "/"
		}
		s.cookie = &cookie
	}

	if cfg.LocalStorage != nil && cfg.LocalStorage.Store != nil {
		local := *cfg.LocalStorage
		if local.Key == "" {
			local.Key = internalTypes.DefaultStoreKey
		}
		s.local = &local
	}

	return s
}

func (s *tokenStorage) enabled() bool {
	return s != nil && (s.cookie != nil || s.local != nil)
}

// read returns the token from the first configured backend, cookie first
func (s *tokenStorage) read() (string, error) {
	if s == nil {
		return "", nil
	}

	if s.cookie != nil {
		token, _, err := s.cookie.Store.Get(s.cookie.Key)
		if err != nil {
			return "", errors.Wrap(err, "failed to read token cookie")
		}
		return token, nil
	}

	if s.local != nil {
		raw, ok, err := s.local.Store.GetItem(s.local.Key)
		if err != nil {
			return "", errors.Wrap(err, "failed to read token item")
		}
		if !ok || raw == "" {
			return "", nil
		}
		var token *string
		if err := json.Unmarshal([]byte(raw), &token); err != nil {
			return "", errors.Wrap(err, "failed to decode token item")
		}
		if token == nil {
			return "", nil
		}
		return *token, nil
	}

	return "", nil
}

// write mirrors token into every configured backend
func (s *tokenStorage) write(token string) error {
	if s == nil {
		return nil
	}

	var errs []error

	if s.local != nil {
		encoded, err := json.Marshal(token)
		if err != nil {
			errs = append(errs, errors.Wrap(err, "failed to encode token item"))
		} else if err := s.local.Store.SetItem(s.local.Key, string(encoded)); err != nil {
			errs = append(errs, errors.Wrap(err, "failed to write token item"))
		}
	}

	if s.cookie != nil {
		if err := s.cookie.Store.Set(s.cookie.Key, token, s.cookie.Options); err != nil {
			errs = append(errs, errors.Wrap(err, "failed to write token cookie"))
		}
	}

	return stderrors.Join(errs...)
}

// remove deletes the token from every configured backend
func (s *tokenStorage) remove() error {
	if s == nil {
		return nil
	}

	var errs []error

	if s.local != nil {
		if err := s.local.Store.RemoveItem(s.local.Key); err != nil {
			errs = append(errs, errors.Wrap(err, "failed to remove token item"))
		}
	}

	if s.cookie != nil {
		if err := s.cookie.Store.Remove(s.cookie.Key, s.cookie.Options); err != nil {
			errs = append(errs, errors.Wrap(err, "failed to remove token cookie"))
		}
	}

	return stderrors.Join(errs...)
}
