package types

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPError is a normalized error response from the backend
type HTTPError struct {
	// Message is the human-readable message extracted from the payload
	Message string `json:"message"`

	// StatusCode is the HTTP status of the response
	StatusCode int `json:"statusCode"`

	// Original is the raw error payload as returned by the backend
	Original json.RawMessage `json:"original,omitempty"`

	// RequestID is the X-Request-ID sent with the failed request
	RequestID string `json:"requestId,omitempty"`
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if text := http.StatusText(e.StatusCode); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP error: %d", e.StatusCode)
}

// Decode unmarshals the original payload into v
func (e *HTTPError) Decode(v interface{}) error {
	if len(e.Original) == 0 {
		return fmt.Errorf("empty error payload")
	}
	return json.Unmarshal(e.Original, v)
}
