package strapi

import (
	"github.com/kenng/qv-strapi/internal/auth"
	"github.com/kenng/qv-strapi/internal/types"
)

// User is the authenticated user's profile as returned by the backend. Its shape
// depends on the backend's user model, so it is kept as decoded JSON.
type User map[string]interface{}

// ID returns the user's id as a string, or "" when absent
func (u User) ID() string {
	switch id := u["id"].(type) {
	case string:
		return id
	case float64:
		return formatNumber(id)
	}
	return ""
}

// Params are query parameters. Nested maps and slices are encoded in bracket
// notation, e.g. Params{"filters": Params{"title": Params{"$eq": "x"}}}.
type Params = map[string]interface{}

// RequestOptions are the per-request options of a dispatch
type RequestOptions = types.RequestOptions

// Hooks provides lifecycle hooks for requests
type Hooks = types.Hooks

// Claims are the decoded claims of a bearer token
type Claims = auth.Claims

// Authentication is the result of a successful authentication flow
type Authentication struct {
	Token string `json:"jwt"`
	User  User   `json:"user,omitempty"`
}

// RegisterParams is the payload of a local registration
type RegisterParams struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginParams is the payload of a local login. Identifier is a username or an
// email address.
type LoginParams struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// ForgotPasswordParams is the payload that triggers a password reset email
type ForgotPasswordParams struct {
	Email string `json:"email"`
}

// ResetPasswordParams is the payload of a password reset. Code comes from the
// link in the reset email.
type ResetPasswordParams struct {
	Code                 string `json:"code"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

// GraphQLQuery is the body of a GraphQL request
type GraphQLQuery struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	OperationName string                 `json:"operationName,omitempty"`
}
