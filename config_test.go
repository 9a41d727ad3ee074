package auth_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	auth "github.com/goliatone/go-authguard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := auth.DefaultConfig([]byte("key"))

	assert.Equal(t, auth.SigningMethodHS256, cfg.SigningMethod)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, "header:Authorization", cfg.TokenLookup)
	assert.Equal(t, "Bearer", cfg.AuthScheme)
	assert.Equal(t, "user", cfg.ContextKey)
	assert.True(t, cfg.RotateOnUse)
	assert.False(t, cfg.LongRunningRefresh)
}

func TestConfig_Normalize(t *testing.T) {
	t.Run("fills zero values", func(t *testing.T) {
		cfg := auth.Config{SigningKey: []byte("key")}.Normalize()

		assert.Equal(t, auth.SigningMethodHS256, cfg.SigningMethod)
		assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
		assert.Equal(t, "Bearer", cfg.AuthScheme)
	})

	t.Run("leaves set values alone", func(t *testing.T) {
		cfg := auth.Config{
			SigningKey:     []byte("key"),
			AccessTokenTTL: time.Minute,
			AuthScheme:     "Token",
			RotateOnUse:    false,
		}.Normalize()

		assert.Equal(t, time.Minute, cfg.AccessTokenTTL)
		assert.Equal(t, "Token", cfg.AuthScheme)
		assert.False(t, cfg.RotateOnUse)
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("default config is valid", func(t *testing.T) {
		assert.NoError(t, auth.DefaultConfig([]byte("key")).Validate())
	})

	t.Run("HS256 requires a signing key", func(t *testing.T) {
		cfg := auth.DefaultConfig(nil)
		assert.Error(t, cfg.Validate())
	})

	t.Run("EdDSA requires both keys", func(t *testing.T) {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		cfg := auth.DefaultConfig(priv)
		cfg.SigningMethod = auth.SigningMethodEdDSA
		assert.Error(t, cfg.Validate())

		cfg.VerifyKey = pub
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown signing method is rejected", func(t *testing.T) {
		cfg := auth.DefaultConfig([]byte("key"))
		cfg.SigningMethod = "none"
		assert.Error(t, cfg.Validate())
	})

	t.Run("access TTL cannot exceed refresh TTL", func(t *testing.T) {
		cfg := auth.DefaultConfig([]byte("key"))
		cfg.AccessTokenTTL = 48 * time.Hour
		cfg.RefreshTokenTTL = time.Hour
		assert.Error(t, cfg.Validate())
	})
}
