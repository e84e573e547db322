package strapi

import (
	"github.com/kenng/qv-strapi/internal/auth"
)

type observer struct {
	id int
	fn func(User)
}

// SetToken applies token to every following request and mirrors it into the
// configured storage backends. The in-memory token is set even when a backend
// fails; the returned error reports the failed writes.
func (c *Client) SetToken(token string) error {
	return c.setToken(token, false)
}

// setToken skips the storage write for tokens that were just read from storage
func (c *Client) setToken(token string, fromStorage bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
	c.transport.SetAuth(token)

	if fromStorage || !c.storage.enabled() {
		return nil
	}
	return c.storage.write(token)
}

// ClearToken stops sending a token and removes it from every configured
// storage backend
func (c *Client) ClearToken() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = ""
	c.transport.ClearAuth()

	if !c.storage.enabled() {
		return nil
	}
	return c.storage.remove()
}

// GetToken reads the token from the first configured storage backend, the
// cookie taking precedence over local storage. It returns "" when no backend is
// configured.
func (c *Client) GetToken() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.storage.read()
}

// SyncToken applies token, or the stored token when token is empty. With
// neither, the token is cleared. It returns the token in effect.
func (c *Client) SyncToken(token string) (string, error) {
	if token == "" {
		stored, err := c.GetToken()
		if err != nil {
			return "", err
		}
		token = stored
	}

	if token == "" {
		return "", c.ClearToken()
	}
	return token, c.SetToken(token)
}

// Token returns the in-memory token, "" when none is set
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// TokenClaims decodes the in-memory token without verifying its signature
func (c *Client) TokenClaims() (*Claims, error) {
	return auth.ParseClaims(c.Token())
}

// User returns the current user, nil when signed out
func (c *Client) User() User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// Subscribe registers fn to be called with the new user every time it changes.
// Callbacks run synchronously in subscription order. The returned func
// unsubscribes.
func (c *Client) Subscribe(fn func(User)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.observers = append(c.observers, observer{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, o := range c.observers {
			if o.id == id {
				c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

func (c *Client) setUser(user User) {
	c.mu.Lock()
	c.user = user
	observers := make([]observer, len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	for _, o := range observers {
		o.fn(user)
	}
}

// loadToken applies a token found in storage at construction
func (c *Client) loadToken() {
	if !c.storage.enabled() {
		return
	}

	token, err := c.GetToken()
	if err != nil {
		c.warn("Failed to load token from storage", "error", err)
		return
	}
	if token == "" {
		return
	}

	_ = c.setToken(token, true)
	c.debug("Token loaded from storage")
}

// storeToken is SetToken for flows that must not fail on storage errors
func (c *Client) storeToken(token string) {
	if err := c.SetToken(token); err != nil {
		c.warn("Failed to persist token", "error", err)
	}
}

// dropToken is ClearToken for flows that must not fail on storage errors
func (c *Client) dropToken() {
	if err := c.ClearToken(); err != nil {
		c.warn("Failed to clear stored token", "error", err)
	}
}
