package strapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kenng/qv-strapi/pkg/store"
)

// newServerClient starts handler and returns a client for it backed by memory stores
func newServerClient(t *testing.T, handler http.HandlerFunc) (*Client, *store.MemoryCookies, *store.MemoryStorage) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cookies := store.NewMemoryCookies()
	local := store.NewMemoryStorage()

	client, err := NewClient(&ClientOptions{
		BaseURL:     server.URL,
		StoreConfig: DefaultStoreConfig(cookies, local),
	})
	require.NoError(t, err)

	return client, cookies, local
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestAuthService_SuccessfulFlowsStoreSession(t *testing.T) {
	tests := []struct {
		name string
		path string
		call func(ctx context.Context, c *Client) (*Authentication, error)
		body map[string]interface{}
	}{
		{
			name: "register",
			path: "/auth/local/register",
			call: func(ctx context.Context, c *Client) (*Authentication, error) {
				return c.Auth.Register(ctx, &RegisterParams{Username: "jo", Email: "jo@example.com", Password: "secret"})
			},
			body: map[string]interface{}{"username": "jo", "email": "jo@example.com", "password": "secret"},
		},
		{
			name: "login",
			path: "/auth/local",
			call: func(ctx context.Context, c *Client) (*Authentication, error) {
				return c.Auth.Login(ctx, &LoginParams{Identifier: "jo@example.com", Password: "secret"})
			},
			body: map[string]interface{}{"identifier": "jo@example.com", "password": "secret"},
		},
		{
			name: "reset password",
			path: "/auth/reset-password",
			call: func(ctx context.Context, c *Client) (*Authentication, error) {
				return c.Auth.ResetPassword(ctx, &ResetPasswordParams{Code: "c0de", Password: "new", PasswordConfirmation: "new"})
			},
			body: map[string]interface{}{"code": "c0de", "password": "new", "passwordConfirmation": "new"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, cookies, local := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case tt.path:
					assert.Equal(t, http.MethodPost, r.Method)
					assert.Empty(t, r.Header.Get("Authorization"))

					var body map[string]interface{}
					assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
					assert.Equal(t, tt.body, body)

					writeJSON(w, http.StatusOK, `{"jwt":"new-token","user":{"id":7,"username":"jo"}}`)
				case "/articles":
					assert.Equal(t, "Bearer new-token", r.Header.Get("Authorization"))
					writeJSON(w, http.StatusOK, `[]`)
				default:
					t.Errorf("unexpected request %s", r.URL.Path)
				}
			})
			require.NoError(t, client.SetToken("old-token"))

			auth, err := tt.call(context.Background(), client)
			require.NoError(t, err)

			want := User{"id": float64(7), "username": "jo"}
			assert.Equal(t, "new-token", auth.Token)
			assert.Equal(t, want, auth.User)
			assert.Equal(t, "Bearer new-token", client.transport.Authorization())
			assert.Equal(t, want, client.User())

			cookie, _, _ := cookies.Get("jwt")
			assert.Equal(t, "new-token", cookie)
			item, _, _ := local.GetItem("jwt")
			assert.Equal(t, `"new-token"`, item)

			require.NoError(t, client.Entries.Find(context.Background(), "articles", nil, nil))
		})
	}
}

func TestAuthService_ClearsTokenBeforeRequest(t *testing.T) {
	tests := []struct {
		name string
		call func(ctx context.Context, c *Client) error
	}{
		{"register", func(ctx context.Context, c *Client) error {
			_, err := c.Auth.Register(ctx, &RegisterParams{Username: "u", Email: "e", Password: "p"})
			return err
		}},
		{"login", func(ctx context.Context, c *Client) error {
			_, err := c.Auth.Login(ctx, &LoginParams{Identifier: "u", Password: "p"})
			return err
		}},
		{"forgot password", func(ctx context.Context, c *Client) error {
			return c.Auth.ForgotPassword(ctx, &ForgotPasswordParams{Email: "e"})
		}},
		{"reset password", func(ctx context.Context, c *Client) error {
			_, err := c.Auth.ResetPassword(ctx, &ResetPasswordParams{Code: "c", Password: "p", PasswordConfirmation: "p"})
			return err
		}},
		{"provider", func(ctx context.Context, c *Client) error {
			_, err := c.Auth.AuthenticateProvider(ctx, "github", Params{"access_token": "x"})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, cookies, local := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Empty(t, r.Header.Get("Authorization"), "stale token sent")
				writeJSON(w, http.StatusBadRequest, `{"message":"nope"}`)
			})
			require.NoError(t, client.SetToken("old-token"))

			err := tt.call(context.Background(), client)
			require.Error(t, err)
			assert.Equal(t, "nope", err.Error())

			assert.Empty(t, client.Token())
			assert.Empty(t, client.transport.Authorization())
			_, ok, _ := cookies.Get("jwt")
			assert.False(t, ok)
			_, ok, _ = local.GetItem("jwt")
			assert.False(t, ok)
		})
	}
}

func TestAuthService_MissingParams(t *testing.T) {
	client := newMockClient(new(MockTransport), nil)
	ctx := context.Background()

	_, err := client.Auth.Register(ctx, nil)
	assert.ErrorIs(t, err, ErrMissingParams)
	_, err = client.Auth.Login(ctx, nil)
	assert.ErrorIs(t, err, ErrMissingParams)
	assert.ErrorIs(t, client.Auth.ForgotPassword(ctx, nil), ErrMissingParams)
	_, err = client.Auth.ResetPassword(ctx, nil)
	assert.ErrorIs(t, err, ErrMissingParams)
}

func TestAuthService_ForgotPassword(t *testing.T) {
	client, _, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/forgot-password", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"email": "jo@example.com"}, body)

		writeJSON(w, http.StatusOK, `{"ok":true}`)
	})
	require.NoError(t, client.SetToken("old-token"))

	err := client.Auth.ForgotPassword(context.Background(), &ForgotPasswordParams{Email: "jo@example.com"})
	require.NoError(t, err)
	assert.Empty(t, client.Token())
}

func TestAuthService_AuthenticateProvider(t *testing.T) {
	client, cookies, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/auth/github/callback", r.URL.Path)
		assert.Equal(t, "gh-token", r.URL.Query().Get("access_token"))
		writeJSON(w, http.StatusOK, `{"jwt":"provider-token","user":{"id":3}}`)
	})

	var notified int
	client.Subscribe(func(User) { notified++ })

	auth, err := client.Auth.AuthenticateProvider(context.Background(), "github", Params{"access_token": "gh-token"})
	require.NoError(t, err)

	assert.Equal(t, "provider-token", auth.Token)
	assert.Equal(t, "provider-token", client.Token())
	assert.Equal(t, "Bearer provider-token", client.transport.Authorization())
	cookie, _, _ := cookies.Get("jwt")
	assert.Equal(t, "provider-token", cookie)

	// the user is not taken from the callback
	assert.Nil(t, client.User())
	assert.Zero(t, notified)
}

func TestAuthService_AuthenticateProvider_Location(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "from-url", r.URL.Query().Get("access_token"))
		assert.Equal(t, "", r.URL.Query().Get("ignored"))
		writeJSON(w, http.StatusOK, `{"jwt":"t"}`)
	}))
	defer server.Close()

	client, err := NewClient(&ClientOptions{
		BaseURL:  server.URL,
		Location: func() string { return "https://app.example.com/connect/github/redirect?access_token=from-url#top" },
	})
	require.NoError(t, err)

	_, err = client.Auth.AuthenticateProvider(context.Background(), "github", Params{"ignored": "yes"})
	require.NoError(t, err)
	assert.Equal(t, "t", client.Token())
}

func TestAuthService_GetProviderAuthenticationURL(t *testing.T) {
	transport := new(MockTransport)
	client := newMockClient(transport, nil)

	assert.Equal(t, "https://api.test.com/connect/github", client.Auth.GetProviderAuthenticationURL("github"))
	transport.AssertNotCalled(t, "Do", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Logout(t *testing.T) {
	cookies := store.NewMemoryCookies()
	local := store.NewMemoryStorage()
	transport := new(MockTransport)
	client := newMockClient(transport, DefaultStoreConfig(cookies, local))

	require.NoError(t, client.SetToken("abc"))
	client.setUser(User{"id": "1"})

	var seen []User
	client.Subscribe(func(u User) { seen = append(seen, u) })

	client.Auth.Logout()

	token, err := client.GetToken()
	require.NoError(t, err)
	assert.Empty(t, token)
	_, ok, _ := cookies.Get("jwt")
	assert.False(t, ok)
	_, ok, _ = local.GetItem("jwt")
	assert.False(t, ok)

	assert.Empty(t, client.transport.Authorization())
	assert.Nil(t, client.User())
	assert.Equal(t, []User{nil}, seen)
	transport.AssertNotCalled(t, "Do", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_FetchUser_NoToken(t *testing.T) {
	var calls int32
	client, _, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	assert.Nil(t, client.Auth.FetchUser(context.Background()))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestAuthService_FetchUser_FromStorage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me", r.URL.Path)
		assert.Equal(t, "Bearer stored", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `{"id":1,"email":"jo@example.com"}`)
	}))
	defer server.Close()

	cookies := store.NewMemoryCookies()
	client, err := NewClient(&ClientOptions{
		BaseURL:     server.URL,
		StoreConfig: DefaultStoreConfig(cookies, nil),
	})
	require.NoError(t, err)

	// written after construction, so only FetchUser can pick it up
	require.NoError(t, cookies.Set("jwt", "stored", store.CookieOptions{Path: "/"}))

	var seen User
	client.Subscribe(func(u User) { seen = u })

	user := client.Auth.FetchUser(context.Background())
	require.NotNil(t, user)
	assert.Equal(t, "1", user.ID())
	assert.Equal(t, user, client.User())
	assert.Equal(t, user, seen)
	assert.Equal(t, "stored", client.Token())
}

func TestAuthService_FetchUser_ErrorClearsSession(t *testing.T) {
	client, cookies, local := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me", r.URL.Path)
		writeJSON(w, http.StatusUnauthorized, `{"message":"Invalid token"}`)
	})
	require.NoError(t, client.SetToken("expired"))
	client.setUser(User{"id": 1})

	assert.Nil(t, client.Auth.FetchUser(context.Background()))
	assert.Nil(t, client.User())
	assert.Empty(t, client.Token())
	assert.Empty(t, client.transport.Authorization())
	_, ok, _ := cookies.Get("jwt")
	assert.False(t, ok)
	_, ok, _ = local.GetItem("jwt")
	assert.False(t, ok)
}

func TestParseCallbackQuery(t *testing.T) {
	tests := []struct {
		raw  string
		want Params
	}{
		{"?access_token=abc&raw[id]=1", Params{"access_token": "abc", "raw": map[string]interface{}{"id": "1"}}},
		{"access_token=abc", Params{"access_token": "abc"}},
		{"https://app.example.com/cb?code=x#frag", Params{"code": "x"}},
		{"https://app.example.com/cb", Params{}},
		{"", Params{}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseCallbackQuery(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseCallbackQuery("?bad=%zz")
	assert.Error(t, err)
}
