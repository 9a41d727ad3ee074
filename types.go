package auth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of a resolved account that directives and
// mutation handlers assert on. An anonymous request carries no Identity at
// all (nil), which is what IsAuthenticated rejects.
type Identity interface {
	ID() string
	Username() string
	Email() string
	Verified() bool
	HasPermission(permission string) bool
}

// TokenValidator verifies a raw token string and returns its structured
// claims. Implementations must report expired and malformed tokens through
// ErrTokenExpired and ErrTokenMalformed respectively so callers can choose
// the correct denial code.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// TokenIssuer mints signed tokens of a given type for an identity.
type TokenIssuer interface {
	Mint(tokenType TokenType, identity Identity) (string, time.Time, error)
}

// TokenService is the full codec surface: issuance plus verification.
type TokenService interface {
	TokenIssuer
	TokenValidator
	SignClaims(claims *JWTClaims) (string, error)
}

// TokenFinder extracts a bearer token from the request context. The hosting
// framework supplies one; see ContextTokenFinder and the fiber adapter.
type TokenFinder func(ctx context.Context) (string, error)

// IdentityResolver loads the identity a token subject refers to. Archived or
// missing subjects must be reported via ErrIdentityNotFound.
type IdentityResolver interface {
	LoadIdentity(ctx context.Context, subject string) (Identity, error)
}

// IdentityProvider verifies credentials and resolves identities. Backed by
// external persistence; UserProvider is the bundled implementation.
type IdentityProvider interface {
	IdentityResolver
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
