package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kenng/qv-strapi/internal/query"
	"github.com/kenng/qv-strapi/internal/types"
)

const (
	contentType = "application/json"
	bearer      = "Bearer "
)

// RESTTransport sends base-URL-relative requests to the content API and keeps
// the default headers shared by every request, including the bearer token
type RESTTransport struct {
	baseURL    string
	httpClient *http.Client
	defaults   *types.RequestOptions
	logger     types.Logger
	hooks      *types.Hooks

	mu      sync.RWMutex
	headers map[string]string
}

// Options for the REST transport
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Headers    map[string]string
	Defaults   *types.RequestOptions
	Logger     types.Logger
	Hooks      *types.Hooks
}

// NewRESTTransport creates a new REST transport
func NewRESTTransport(opts *Options) *RESTTransport {
	if opts == nil {
		opts = &Options{}
	}

	// Set defaults
	if opts.BaseURL == "" {
		opts.BaseURL = types.DefaultBaseURL
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: types.DefaultTimeout,
		}
	}

	headers := map[string]string{
		"Accept":     contentType,
		"User-Agent": types.UserAgent,
	}

	// Merge custom headers
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &RESTTransport{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		defaults:   opts.Defaults,
		headers:    headers,
		logger:     opts.Logger,
		hooks:      opts.Hooks,
	}
}

// BaseURL returns the URL every request path is appended to
func (t *RESTTransport) BaseURL() string {
	return t.baseURL
}

// Do sends method to path and decodes a successful JSON response into result.
// Non-2xx responses become *types.HTTPError; failures to get any response are
// returned exactly as the HTTP client reported them.
func (t *RESTTransport) Do(ctx context.Context, method, path string, opts *types.RequestOptions, result interface{}) error {
	merged := mergeOptions(t.defaults, opts)

	if merged.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, merged.Timeout)
		defer cancel()
	}

	body, bodyType, err := encodeBody(merged.Body)
	if err != nil {
		return err
	}

	target := t.baseURL + path
	if q := query.Encode(merged.Params); q != "" {
		target += "?" + q
	}

	// Create HTTP request
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	requestID := uuid.New().String()

	// Set headers; per-request headers win over defaults
	for k, v := range t.Headers() {
		req.Header.Set(k, v)
	}
	if bodyType != "" {
		req.Header.Set("Content-Type", bodyType)
	}
	req.Header.Set(types.RequestIDHeaderKey, requestID)
	for k, v := range merged.Headers {
		req.Header.Set(k, v)
	}

	// Call request hook
	if t.hooks != nil && t.hooks.OnRequest != nil {
		t.hooks.OnRequest(ctx, req)
	}

	if t.logger != nil {
		t.logger.Debug("HTTP request", "method", method, "path", path, "requestId", requestID)
	}

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		if t.hooks != nil && t.hooks.OnError != nil {
			t.hooks.OnError(ctx, err)
		}
		return err
	}
	defer resp.Body.Close()

	// Call response hook
	if t.hooks != nil && t.hooks.OnResponse != nil {
		t.hooks.OnResponse(ctx, resp, duration)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}

	if t.logger != nil {
		t.logger.Debug("HTTP response", "status", resp.StatusCode, "duration", duration, "size", len(respBody))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := handleHTTPError(resp.StatusCode, respBody)
		httpErr.RequestID = requestID
		if t.hooks != nil && t.hooks.OnError != nil {
			t.hooks.OnError(ctx, httpErr)
		}
		return httpErr
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return errors.Wrap(err, "failed to parse response")
		}
	}

	return nil
}

// SetAuth sets the bearer token sent with every request
func (t *RESTTransport) SetAuth(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.headers[types.AuthHeaderKey] = bearer + token
}

// ClearAuth removes the bearer token
func (t *RESTTransport) ClearAuth() {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.headers, types.AuthHeaderKey)
}

// Authorization returns the current Authorization header value, empty when unset
func (t *RESTTransport) Authorization() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.headers[types.AuthHeaderKey]
}

// Headers returns a copy of the default headers
func (t *RESTTransport) Headers() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]string, len(t.headers))
	for k, v := range t.headers {
		out[k] = v
	}
	return out
}

// mergeOptions layers per-request options over the client defaults
func mergeOptions(defaults, opts *types.RequestOptions) *types.RequestOptions {
	merged := &types.RequestOptions{}

	for _, o := range []*types.RequestOptions{defaults, opts} {
		if o == nil {
			continue
		}
		if len(o.Params) > 0 {
			if merged.Params == nil {
				merged.Params = make(map[string]interface{}, len(o.Params))
			}
			for k, v := range o.Params {
				merged.Params[k] = v
			}
		}
		if len(o.Headers) > 0 {
			if merged.Headers == nil {
				merged.Headers = make(map[string]string, len(o.Headers))
			}
			for k, v := range o.Headers {
				merged.Headers[k] = v
			}
		}
		if o.Body != nil {
			merged.Body = o.Body
		}
		if o.Timeout > 0 {
			merged.Timeout = o.Timeout
		}
	}

	return merged
}

// encodeBody returns the request body and the content type it implies
func encodeBody(body interface{}) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case io.Reader:
		return b, "", nil
	case json.RawMessage:
		return bytes.NewReader(b), contentType, nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to marshal request")
	}
	return bytes.NewReader(data), contentType, nil
}
