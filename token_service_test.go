package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	auth "github.com/goliatone/go-authguard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenService(t *testing.T) {
	t.Run("creates token service with logger", func(t *testing.T) {
		logger := &MockLogger{}
		service := auth.NewTokenService(testConfig(), logger)
		assert.NotNil(t, service)
	})

	t.Run("creates token service with nil logger", func(t *testing.T) {
		service := auth.NewTokenService(testConfig(), nil)
		assert.NotNil(t, service)
	})
}

func TestTokenService_Mint(t *testing.T) {
	cfg := testConfig()
	service := auth.NewTokenService(cfg, nil)

	identity := testIdentity{
		id:       "b39a2b23-3e66-4b0a-b08f-08c5b2b0c64f",
		username: "peperone",
		email:    "peperone@example.com",
	}

	t.Run("mints valid access token", func(t *testing.T) {
		tokenString, expiresAt, err := service.Mint(auth.TokenTypeAccess, identity)
		require.NoError(t, err)
		assert.NotEmpty(t, tokenString)
		assert.WithinDuration(t, time.Now().Add(cfg.AccessTokenTTL), expiresAt, time.Minute)

		token, err := jwt.ParseWithClaims(tokenString, &auth.JWTClaims{}, func(token *jwt.Token) (any, error) {
			return cfg.SigningKey, nil
		})
		require.NoError(t, err)
		assert.True(t, token.Valid)

		claims, ok := token.Claims.(*auth.JWTClaims)
		require.True(t, ok)
		assert.Equal(t, identity.id, claims.Subject())
		assert.Equal(t, identity.id, claims.UserID())
		assert.Equal(t, "peperone", claims.Username())
		assert.Equal(t, auth.TokenTypeAccess, claims.Type())
		assert.Equal(t, cfg.Issuer, claims.Issuer)
		assert.NotEmpty(t, claims.ID, "every token carries a unique jti")
	})

	t.Run("mints refresh token with refresh TTL and type", func(t *testing.T) {
		tokenString, expiresAt, err := service.Mint(auth.TokenTypeRefresh, identity)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(cfg.RefreshTokenTTL), expiresAt, time.Minute)

		claims, err := service.Validate(tokenString)
		require.NoError(t, err)
		assert.Equal(t, auth.TokenTypeRefresh, claims.Type())
	})

	t.Run("two mints produce distinct tokens", func(t *testing.T) {
		first, _, err := service.Mint(auth.TokenTypeAccess, identity)
		require.NoError(t, err)
		second, _, err := service.Mint(auth.TokenTypeAccess, identity)
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("rejects nil identity", func(t *testing.T) {
		_, _, err := service.Mint(auth.TokenTypeAccess, nil)
		assert.Error(t, err)
	})
}

func TestTokenService_Validate(t *testing.T) {
	cfg := testConfig()
	service := auth.NewTokenService(cfg, nil)

	identity := testIdentity{id: "b39a2b23-3e66-4b0a-b08f-08c5b2b0c64f", username: "peperone"}

	t.Run("validates freshly minted token", func(t *testing.T) {
		tokenString, _, err := service.Mint(auth.TokenTypeAccess, identity)
		require.NoError(t, err)

		claims, err := service.Validate(tokenString)
		require.NoError(t, err)
		assert.Equal(t, identity.id, claims.Subject())
	})

	t.Run("expired token reports ErrTokenExpired", func(t *testing.T) {
		expiredCfg := cfg
		expiredCfg.AccessTokenTTL = -time.Hour
		expiredCfg.RefreshTokenTTL = 0
		expired := auth.NewTokenService(expiredCfg, nil)

		tokenString, _, err := expired.Mint(auth.TokenTypeAccess, identity)
		require.NoError(t, err)

		_, err = service.Validate(tokenString)
		require.Error(t, err)
		assert.True(t, auth.IsTokenExpiredError(err))
		assert.False(t, auth.IsMalformedError(err))
	})

	t.Run("garbage token reports malformed", func(t *testing.T) {
		_, err := service.Validate("not.a.token")
		require.Error(t, err)
		assert.True(t, auth.IsMalformedError(err))
		assert.False(t, auth.IsTokenExpiredError(err))
	})

	t.Run("token signed with another key reports malformed", func(t *testing.T) {
		otherCfg := cfg
		otherCfg.SigningKey = []byte("other-signing-key")
		other := auth.NewTokenService(otherCfg, nil)

		tokenString, _, err := other.Mint(auth.TokenTypeAccess, identity)
		require.NoError(t, err)

		_, err = service.Validate(tokenString)
		require.Error(t, err)
		assert.True(t, auth.IsMalformedError(err))
	})

	t.Run("token with wrong issuer is rejected", func(t *testing.T) {
		otherCfg := cfg
		otherCfg.Issuer = "someone-else"
		other := auth.NewTokenService(otherCfg, nil)

		tokenString, _, err := other.Mint(auth.TokenTypeAccess, identity)
		require.NoError(t, err)

		_, err = service.Validate(tokenString)
		assert.Error(t, err)
	})
}

func TestMintScopedToken(t *testing.T) {
	cfg := testConfig()
	service := auth.NewTokenService(cfg, nil)
	identity := testIdentity{id: "b39a2b23-3e66-4b0a-b08f-08c5b2b0c64f", username: "peperone"}

	t.Run("mints scoped token carrying scope and type", func(t *testing.T) {
		tokenString, expiresAt, err := auth.MintScopedToken(service, identity, auth.ScopedTokenOptions{
			TTL:    time.Minute * 30,
			Scopes: []string{auth.ScopeVerifyAccount},
		})
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, time.Minute)

		claims, err := service.Validate(tokenString)
		require.NoError(t, err)
		assert.Equal(t, auth.TokenTypeScoped, claims.Type())
		assert.True(t, claims.HasScope(auth.ScopeVerifyAccount))
		assert.False(t, claims.HasScope("tokens:mint"))
	})

	t.Run("defaults TTL from the service config", func(t *testing.T) {
		tokenString, expiresAt, err := auth.MintScopedToken(service, identity, auth.ScopedTokenOptions{
			Scopes: []string{auth.ScopeVerifyAccount},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, tokenString)
		assert.WithinDuration(t, time.Now().Add(cfg.AccessTokenTTL), expiresAt, time.Minute)
	})

	t.Run("rejects nil inputs", func(t *testing.T) {
		_, _, err := auth.MintScopedToken(nil, identity, auth.ScopedTokenOptions{})
		assert.Error(t, err)

		_, _, err = auth.MintScopedToken(service, nil, auth.ScopedTokenOptions{})
		assert.Error(t, err)
	})
}
