package transport

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/kenng/qv-strapi/internal/types"
)

// handleHTTPError normalizes an error response into a *types.HTTPError
func handleHTTPError(statusCode int, body []byte) *types.HTTPError {
	return &types.HTTPError{
		Message:    normalizeMessage(statusCode, body),
		StatusCode: statusCode,
		Original:   originalPayload(body),
	}
}

// normalizeMessage extracts the human-readable message from an error payload.
//
// The "message" field decides: a list of entries yields the first entry's first
// message, an object yields its "message", anything else is used verbatim. When
// "message" is missing the newer {"error": {...}} shape is tried, and finally the
// HTTP status text.
func normalizeMessage(statusCode int, body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
	}

	if err := json.Unmarshal(body, &payload); err == nil {
		if msg, ok := messageFrom(payload.Message); ok {
			return msg
		}
		if msg, ok := messageFrom(payload.Error); ok {
			return msg
		}
	}

	return statusDescription(statusCode)
}

func messageFrom(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return "", false
	}

	switch raw[0] {
	case '[':
		var entries []struct {
			Messages []struct {
				Message json.RawMessage `json:"message"`
			} `json:"messages"`
		}
		if err := json.Unmarshal(raw, &entries); err == nil && len(entries) > 0 && len(entries[0].Messages) > 0 {
			if msg, ok := scalarText(entries[0].Messages[0].Message); ok {
				return msg, true
			}
		}
		return string(raw), true
	case '{':
		var obj struct {
			Message json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil {
			if msg, ok := scalarText(obj.Message); ok {
				return msg, true
			}
		}
		return string(raw), true
	default:
		return scalarText(raw)
	}
}

// scalarText returns JSON strings unquoted and any other value as its JSON text
func scalarText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s, true
		}
	}
	return string(raw), true
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// originalPayload keeps the body as-is when it is JSON and as a JSON string
// otherwise, so the error stays marshalable
func originalPayload(body []byte) json.RawMessage {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		out := make(json.RawMessage, len(body))
		copy(out, body)
		return out
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return quoted
}

// statusDescription returns a human-readable description for a status code,
// covering the proxy codes net/http has no text for
func statusDescription(statusCode int) string {
	if text := http.StatusText(statusCode); text != "" {
		return text
	}
	descriptions := map[int]string{
		520: "Web Server Error",
		521: "Web Server Is Down",
		522: "Connection Timed Out",
		523: "Origin Is Unreachable",
		524: "A Timeout Occurred",
		525: "SSL Handshake Failed",
		526: "Invalid SSL Certificate",
		527: "Railgun Error",
		530: "Origin DNS Error",
	}
	return descriptions[statusCode]
}
