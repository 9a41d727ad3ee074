package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	auth "github.com/goliatone/go-authguard"
	"github.com/stretchr/testify/assert"
)

func TestJWTClaims(t *testing.T) {
	t.Run("exposes registered claims through the interface", func(t *testing.T) {
		now := time.Now()
		claims := &auth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-123",
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
			UID:       "user-123",
			Uname:     "peperone",
			TokenKind: auth.TokenTypeAccess,
		}

		assert.Equal(t, "user-123", claims.Subject())
		assert.Equal(t, "user-123", claims.UserID())
		assert.Equal(t, "peperone", claims.Username())
		assert.Equal(t, auth.TokenTypeAccess, claims.Type())
		assert.WithinDuration(t, now, claims.IssuedAt(), time.Second)
		assert.WithinDuration(t, now.Add(time.Hour), claims.Expires(), time.Second)
	})

	t.Run("user id falls back to subject", func(t *testing.T) {
		claims := &auth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-123"},
		}
		assert.Equal(t, "user-123", claims.UserID())
	})

	t.Run("missing type reads as access token", func(t *testing.T) {
		claims := &auth.JWTClaims{}
		assert.Equal(t, auth.TokenTypeAccess, claims.Type())
	})

	t.Run("scope membership", func(t *testing.T) {
		claims := &auth.JWTClaims{
			TokenKind: auth.TokenTypeScoped,
			Scopes:    []string{auth.ScopeVerifyAccount},
		}
		assert.True(t, claims.HasScope(auth.ScopeVerifyAccount))
		assert.False(t, claims.HasScope("something:else"))
	})

	t.Run("zero timestamps on empty claims", func(t *testing.T) {
		claims := &auth.JWTClaims{}
		assert.True(t, claims.Expires().IsZero())
		assert.True(t, claims.IssuedAt().IsZero())
	})
}
