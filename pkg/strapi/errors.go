package strapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kenng/qv-strapi/internal/types"
)

var (
	// ErrNoToken is returned when an operation needs a token and none is available
	ErrNoToken = types.ErrNoToken

	// ErrInvalidToken is returned when a token cannot be decoded
	ErrInvalidToken = types.ErrInvalidToken

	// ErrMissingParams is returned when a required payload is nil
	ErrMissingParams = errors.New("missing params")
)

// HTTPError is a normalized error response from the backend. Message holds the
// extracted human-readable message and Original the raw payload.
type HTTPError = types.HTTPError

// AsHTTPError returns the *HTTPError in err's chain, if any
func AsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// IsUnauthorized checks if the backend rejected the request's credentials
func IsUnauthorized(err error) bool {
	httpErr, ok := AsHTTPError(err)
	return ok && httpErr.StatusCode == http.StatusUnauthorized
}

// IsNotFound checks if the backend reported a missing resource
func IsNotFound(err error) bool {
	httpErr, ok := AsHTTPError(err)
	return ok && httpErr.StatusCode == http.StatusNotFound
}

// IsAuthError checks if error is authentication related
func IsAuthError(err error) bool {
	if errors.Is(err, ErrNoToken) || errors.Is(err, ErrInvalidToken) {
		return true
	}
	httpErr, ok := AsHTTPError(err)
	return ok && (httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
