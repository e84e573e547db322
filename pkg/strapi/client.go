package strapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/pkg/errors"

	"github.com/kenng/qv-strapi/internal/transport"
	internalTypes "github.com/kenng/qv-strapi/internal/types"
)

const (
	// DefaultBaseURL is the default content API base URL
	DefaultBaseURL = internalTypes.DefaultBaseURL

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = internalTypes.DefaultTimeout

	// UserAgent is the user agent string
	UserAgent = internalTypes.UserAgent
)

// Client is the content API client
type Client struct {
	// Service interfaces
	Auth    AuthService
	Entries EntryService
	Files   FileService

	// Internal fields
	baseURL    string
	httpClient *http.Client
	transport  Transport
	options    *ClientOptions
	storage    *tokenStorage

	mu        sync.RWMutex
	token     string
	user      User
	observers []observer
	nextID    int
}

// ClientOptions configures the client
type ClientOptions struct {
	// BaseURL overrides the default API base URL
	BaseURL string

	// HTTPClient allows using a custom HTTP client
	HTTPClient *http.Client

	// Timeout sets the HTTP client timeout
	Timeout time.Duration

	// RequestDefaults are merged under every request; per-request values win
	RequestDefaults *RequestOptions

	// StoreConfig selects where the token is persisted. Nil keeps the defaults,
	// which name both backends "jwt" but configure no store.
	StoreConfig *StoreConfig

	// Token provides a bearer token directly
	Token string

	// Location returns the current page URL. When set, AuthenticateProvider reads
	// its params from this URL's query string.
	Location func() string

	// Logger for debug logging
	Logger Logger

	// Hooks for observability
	Hooks *Hooks

	// SentryDSN enables Sentry error tracking when set
	SentryDSN string

	// SentryOptions allows custom Sentry configuration
	SentryOptions *sentry.ClientOptions
}

// Logger interface for logging
type Logger = internalTypes.Logger

// Transport sends requests and holds the bearer header
type Transport interface {
	Do(ctx context.Context, method, path string, opts *RequestOptions, result interface{}) error
	SetAuth(token string)
	ClearAuth()
	Authorization() string
}

// jarProvider is implemented by cookie stores that keep their cookies in a jar
type jarProvider interface {
	Jar() http.CookieJar
}

// NewClient creates a new client. When a storage backend is configured, a token
// found there is applied immediately.
func NewClient(opts *ClientOptions) (*Client, error) {
	if opts == nil {
		opts = &ClientOptions{}
	}

	// Initialize Sentry if DSN is provided
	if opts.SentryDSN != "" || opts.SentryOptions != nil {
		sentryOpts := sentry.ClientOptions{}

		if opts.SentryOptions != nil {
			sentryOpts = *opts.SentryOptions
		}

		if opts.SentryDSN != "" {
			sentryOpts.Dsn = opts.SentryDSN
		}

		if sentryOpts.Environment == "" {
			sentryOpts.Environment = "production"
		}

		// Log error but don't fail client creation
		if err := sentry.Init(sentryOpts); err != nil && opts.Logger != nil {
			opts.Logger.Error("Failed to initialize Sentry", "error", err)
		}
	}

	// Set defaults
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base URL")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid base URL %q", opts.BaseURL)
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = cleanhttp.DefaultClient()
		opts.HTTPClient.Timeout = DefaultTimeout
	}

	if opts.Timeout > 0 {
		opts.HTTPClient.Timeout = opts.Timeout
	}

	storage := newTokenStorage(opts.StoreConfig)

	// Cookies kept in a jar travel with requests, as they would in a browser
	if storage.cookie != nil && opts.HTTPClient.Jar == nil {
		if jp, ok := storage.cookie.Store.(jarProvider); ok {
			opts.HTTPClient.Jar = jp.Jar()
		}
	}

	trans := transport.NewRESTTransport(&transport.Options{
		BaseURL:    opts.BaseURL,
		HTTPClient: opts.HTTPClient,
		Defaults:   opts.RequestDefaults,
		Logger:     opts.Logger,
		Hooks:      opts.Hooks,
	})

	c := &Client{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		transport:  trans,
		options:    opts,
		storage:    storage,
	}

	c.initServices()
	c.loadToken()

	if opts.Token != "" {
		if err := c.SetToken(opts.Token); err != nil {
			c.warn("Failed to persist token", "error", err)
		}
	}

	return c, nil
}

// NewClientWithToken creates a client for baseURL with a bearer token
func NewClientWithToken(baseURL, token string) (*Client, error) {
	return NewClient(&ClientOptions{
		BaseURL: baseURL,
		Token:   token,
	})
}

// initServices initializes all service implementations
func (c *Client) initServices() {
	c.Auth = &authService{client: c}
	c.Entries = &entryService{client: c}
	c.Files = &fileService{client: c}
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HTTPClient returns the HTTP client requests are sent with
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Request sends method to path, relative to the base URL, and decodes the JSON
// response into result. A response with an error status becomes an *HTTPError;
// a request that got no response returns the HTTP client's error unchanged.
func (c *Client) Request(ctx context.Context, method, path string, opts *RequestOptions, result interface{}) error {
	return c.dispatch(ctx, method, path, opts, result, nil)
}

func (c *Client) dispatch(ctx context.Context, method, path string, opts *RequestOptions, result interface{}, tags map[string]string) error {
	method = strings.ToUpper(method)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	start := time.Now()
	err := c.transport.Do(ctx, method, path, opts, result)
	duration := time.Since(start)

	// Capture errors in Sentry
	if err != nil {
		capture := func(hub *sentry.Hub) {
			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("http.method", method)
				scope.SetTag("http.path", path)
				for k, v := range tags {
					scope.SetTag(k, v)
				}
				extra := map[string]interface{}{
					"duration": duration.String(),
				}
				if httpErr, ok := AsHTTPError(err); ok {
					scope.SetTag("http.status_code", formatNumber(float64(httpErr.StatusCode)))
					extra["requestId"] = httpErr.RequestID
				}
				scope.SetContext("request", extra)
				hub.CaptureException(err)
			})
		}

		if hub := sentry.GetHubFromContext(ctx); hub != nil {
			capture(hub)
		} else {
			capture(sentry.CurrentHub())
		}
	}

	return err
}

// Close flushes any pending Sentry events and performs cleanup
func (c *Client) Close() {
	sentry.Flush(2 * time.Second)
}

func (c *Client) warn(msg string, keysAndValues ...interface{}) {
	if c.options != nil && c.options.Logger != nil {
		c.options.Logger.Warn(msg, keysAndValues...)
	}
}

func (c *Client) debug(msg string, keysAndValues ...interface{}) {
	if c.options != nil && c.options.Logger != nil {
		c.options.Logger.Debug(msg, keysAndValues...)
	}
}
