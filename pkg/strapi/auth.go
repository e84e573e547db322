package strapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/kenng/qv-strapi/internal/query"
)

// authService implements the AuthService interface
type authService struct {
	client *Client
}

// Register creates a local account and signs it in
func (s *authService) Register(ctx context.Context, params *RegisterParams) (*Authentication, error) {
	if params == nil {
		return nil, errors.Wrap(ErrMissingParams, "register")
	}
	return s.authenticate(ctx, "/auth/local/register", params)
}

// Login signs in with an identifier and a password
func (s *authService) Login(ctx context.Context, params *LoginParams) (*Authentication, error) {
	if params == nil {
		return nil, errors.Wrap(ErrMissingParams, "login")
	}
	return s.authenticate(ctx, "/auth/local", params)
}

// ForgotPassword asks the backend to send a reset email. No token is issued.
func (s *authService) ForgotPassword(ctx context.Context, params *ForgotPasswordParams) error {
	if params == nil {
		return errors.Wrap(ErrMissingParams, "forgot password")
	}

	s.client.dropToken()

	return s.client.dispatch(ctx, http.MethodPost, "/auth/forgot-password", &RequestOptions{Body: params}, nil, authTags("forgot-password"))
}

// ResetPassword sets a new password and signs in
func (s *authService) ResetPassword(ctx context.Context, params *ResetPasswordParams) (*Authentication, error) {
	if params == nil {
		return nil, errors.Wrap(ErrMissingParams, "reset password")
	}
	return s.authenticate(ctx, "/auth/reset-password", params)
}

// AuthenticateProvider exchanges the provider callback params for a token. When
// the client has a Location, its query string replaces params.
func (s *authService) AuthenticateProvider(ctx context.Context, provider string, params Params) (*Authentication, error) {
	s.client.dropToken()

	if location := s.client.options.Location; location != nil {
		parsed, err := ParseCallbackQuery(location())
		if err != nil {
			return nil, err
		}
		params = parsed
	}

	var result Authentication
	path := "/auth/" + provider + "/callback"
	if err := s.client.dispatch(ctx, http.MethodGet, path, &RequestOptions{Params: params}, &result, authTags("provider")); err != nil {
		return nil, err
	}

	// The callback carries no user worth keeping; FetchUser loads it on demand
	s.client.storeToken(result.Token)

	return &result, nil
}

// GetProviderAuthenticationURL returns the URL that starts a provider sign-in
func (s *authService) GetProviderAuthenticationURL(provider string) string {
	return s.client.baseURL + "/connect/" + provider
}

// Logout forgets the session locally
func (s *authService) Logout() {
	s.client.dropToken()
	s.client.setUser(nil)
}

// FetchUser loads the current user. A failed request is treated as an expired
// session: the token is cleared and nil returned.
func (s *authService) FetchUser(ctx context.Context) User {
	token, err := s.client.SyncToken(s.client.Token())
	if err != nil {
		s.client.warn("Failed to sync token", "error", err)
	}
	if token == "" {
		return nil
	}

	var user User
	if err := s.client.Entries.FindByID(ctx, "users", "me", &user); err != nil {
		s.client.warn("Failed to fetch current user", "error", err)
		s.client.dropToken()
		s.client.setUser(nil)
		return nil
	}

	s.client.setUser(user)
	return user
}

// authenticate posts credentials to path and keeps the resulting session
func (s *authService) authenticate(ctx context.Context, path string, body interface{}) (*Authentication, error) {
	s.client.dropToken()

	var result Authentication
	if err := s.client.dispatch(ctx, http.MethodPost, path, &RequestOptions{Body: body}, &result, authTags(path)); err != nil {
		return nil, err
	}

	s.client.storeToken(result.Token)
	s.client.setUser(result.User)

	return &result, nil
}

func authTags(flow string) map[string]string {
	return map[string]string{"auth.flow": flow}
}

// ParseCallbackQuery parses the query string of a provider callback URL into
// params. It accepts a full URL or a bare query string, with or without the
// leading "?".
func ParseCallbackQuery(raw string) (Params, error) {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}

	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	} else if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		// a URL with no query
		return Params{}, nil
	}

	params, err := query.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse callback query")
	}
	return params, nil
}
