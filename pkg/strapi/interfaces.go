package strapi

import (
	"context"
	"io"
)

// AuthService handles authentication and the current user
type AuthService interface {
	// Register creates a local account and signs it in
	Register(ctx context.Context, params *RegisterParams) (*Authentication, error)

	// Login signs in with an identifier (username or email) and password
	Login(ctx context.Context, params *LoginParams) (*Authentication, error)

	// ForgotPassword asks the backend to email a reset link
	ForgotPassword(ctx context.Context, params *ForgotPasswordParams) error

	// ResetPassword sets a new password using the code from the reset email
	ResetPassword(ctx context.Context, params *ResetPasswordParams) (*Authentication, error)

	// AuthenticateProvider completes a third-party provider sign-in. The user is
	// not fetched; call FetchUser afterwards if it is needed.
	AuthenticateProvider(ctx context.Context, provider string, params Params) (*Authentication, error)

	// GetProviderAuthenticationURL returns the URL that starts a provider sign-in
	GetProviderAuthenticationURL(provider string) string

	// Logout forgets the token and the user without contacting the backend
	Logout()

	// FetchUser loads the current user. Any failure invalidates the session and
	// yields nil.
	FetchUser(ctx context.Context) User
}

// EntryService handles CRUD on entity collections. Entity is the collection's
// path segment, e.g. "articles".
type EntryService interface {
	// Find lists entries matching params
	Find(ctx context.Context, entity string, params Params, result interface{}) error

	// Count counts entries matching params
	Count(ctx context.Context, entity string, params Params, result interface{}) error

	// FindByID retrieves a single entry
	FindByID(ctx context.Context, entity, id string, result interface{}) error

	// Create creates an entry
	Create(ctx context.Context, entity string, data interface{}, result interface{}) error

	// Update updates an entry
	Update(ctx context.Context, entity, id string, data interface{}, result interface{}) error

	// Delete deletes an entry
	Delete(ctx context.Context, entity, id string, result interface{}) error
}

// FileService handles the upload plugin's files
type FileService interface {
	// Find lists files matching params
	Find(ctx context.Context, params Params, result interface{}) error

	// Get retrieves a single file
	Get(ctx context.Context, id string, result interface{}) error

	// Search finds files by keywords
	Search(ctx context.Context, query string, result interface{}) error

	// Upload posts a multipart body. Use NewUploadForm to build one.
	Upload(ctx context.Context, body io.Reader, opts *RequestOptions, result interface{}) error
}
