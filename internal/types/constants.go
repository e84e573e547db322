package types

import (
	"errors"
	"time"
)

const (
	// DefaultBaseURL is the default content API base URL
	DefaultBaseURL = "http://localhost:1337"

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second

	// UserAgent is the user agent string
	UserAgent = "qv-strapi-go/1.0.0"

	// DefaultStoreKey is the storage key used for the token when none is configured
	DefaultStoreKey = "jwt"

	// AuthHeaderKey is the header carrying the bearer token
	AuthHeaderKey = "Authorization"

	// RequestIDHeaderKey is the header carrying the per-request id
	RequestIDHeaderKey = "X-Request-ID"
)

// Common errors
var (
	// ErrNoToken is returned when an operation needs a token and none is available
	ErrNoToken = errors.New("no token")

	// ErrInvalidToken is returned when a token cannot be decoded
	ErrInvalidToken = errors.New("invalid token")
)
