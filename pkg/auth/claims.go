package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// IDTokenPayload captures the data available when minting an ID token.
type IDTokenPayload struct {
	UserID   string
	Email    string
	FullName string
}

// IDTokenClaims mirrors the claim names used by Firebase ID tokens so both
// identity providers decode into the same shape.
type IDTokenClaims struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// UID returns the stable user id, preferring sub over user_id.
func (c *IDTokenClaims) UID() string {
	if c == nil {
		return ""
	}
	if sub := strings.TrimSpace(c.Subject); sub != "" {
		return sub
	}
	return strings.TrimSpace(c.UserID)
}
