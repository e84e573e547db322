// Package auth inspects bearer tokens issued by the content API. Signatures are
// not verified here; the backend remains the authority on token validity.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/kenng/qv-strapi/internal/types"
)

// Claims are the registered claims of a bearer token plus the user id the
// backend embeds under "id"
type Claims struct {
	UserID    string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token expired before now. Tokens without an
// expiry never expire.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// ParseClaims decodes the claims of token without verifying its signature
func ParseClaims(token string) (*Claims, error) {
	if token == "" {
		return nil, types.ErrNoToken
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return nil, errors.Wrap(types.ErrInvalidToken, err.Error())
	}

	claims := &Claims{}

	if sub, err := mapClaims.GetSubject(); err == nil {
		claims.Subject = sub
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	switch id := mapClaims["id"].(type) {
	case string:
		claims.UserID = id
	case float64:
		claims.UserID = fmt.Sprintf("%.0f", id)
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}

	return claims, nil
}
