package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType distinguishes the credentials this package mints. The type is
// embedded in the claims so every token is self-describing.
type TokenType string

const (
	// TokenTypeAccess is a short-lived stateless credential, verified by
	// signature and expiry alone.
	TokenTypeAccess TokenType = "access"
	// TokenTypeRefresh is a long-lived credential backed by a persisted,
	// revocable record.
	TokenTypeRefresh TokenType = "refresh"
	// TokenTypeScoped is a purpose-bound credential (e.g. account
	// verification) carrying an explicit scope list.
	TokenTypeScoped TokenType = "scoped"
)

// AuthClaims represents the structured claims carried by our tokens.
type AuthClaims interface {
	Subject() string
	UserID() string
	Username() string
	Type() TokenType
	HasScope(scope string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string    `json:"uid,omitempty"`
	Uname     string    `json:"username,omitempty"`
	TokenKind TokenType `json:"typ,omitempty"`
	Scopes    []string  `json:"scopes,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID, falling back to the subject claim.
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Username returns the username claim.
func (c *JWTClaims) Username() string {
	return c.Uname
}

// Type returns the token type claim. Tokens minted before the type claim was
// introduced are treated as access tokens.
func (c *JWTClaims) Type() TokenType {
	if c.TokenKind == "" {
		return TokenTypeAccess
	}
	return c.TokenKind
}

// HasScope checks whether the token carries the given scope.
func (c *JWTClaims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Expires returns the expiration time, zero when absent.
func (c *JWTClaims) Expires() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// IssuedAt returns the issuance time, zero when absent.
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.IssuedAt.Time
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = newTokenID()
	}
}
