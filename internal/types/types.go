package types

import (
	"context"
	"net/http"
	"time"
)

// Logger interface for logging
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Hooks provides lifecycle hooks for requests
type Hooks struct {
	OnRequest  func(ctx context.Context, req *http.Request)
	OnResponse func(ctx context.Context, resp *http.Response, duration time.Duration)
	OnError    func(ctx context.Context, err error)
}

// RequestOptions carries the per-request parts of a dispatch. The same shape is
// used for client-wide defaults.
type RequestOptions struct {
	// Params are serialized into the query string
	Params map[string]interface{}

	// Body is sent raw when it is an io.Reader and JSON-encoded otherwise
	Body interface{}

	// Headers are added to the request, overriding defaults with the same name
	Headers map[string]string

	// Timeout bounds this request when > 0
	Timeout time.Duration
}
