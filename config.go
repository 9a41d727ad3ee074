package auth

import (
	"time"

	"github.com/goliatone/go-errors"
)

// Signing method identifiers, matching JWT "alg" header values.
const (
	SigningMethodHS256 = "HS256"
	SigningMethodEdDSA = "EdDSA"
)

// Config carries every knob the token codec, the refresh store, and the
// transport glue need. It is built once at process start and passed by value
// into constructors; nothing in this package reads ambient state.
type Config struct {
	// SigningMethod selects HS256 (default) or EdDSA.
	SigningMethod string
	// SigningKey is the HMAC secret for HS256, or the ed25519 private key
	// (raw seed+public or PEM) for EdDSA.
	SigningKey []byte
	// VerifyKey is the ed25519 public key used for EdDSA verification.
	// Ignored for HS256.
	VerifyKey []byte

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	Issuer   string
	Audience []string

	// TokenLookup tells the transport glue where to find the bearer token,
	// e.g. "header:Authorization" or "header:Authorization,cookie:jwt".
	TokenLookup string
	AuthScheme  string
	ContextKey  string

	// LongRunningRefresh allows multiple live refresh tokens per subject.
	// When false (the default), issuing a refresh token revokes any prior
	// active token for the same subject.
	LongRunningRefresh bool
	// RotateOnUse replaces a refresh token with a successor every time it is
	// used to mint new access tokens, invalidating the predecessor.
	RotateOnUse bool
}

// DefaultConfig returns a Config with the package defaults applied: HS256
// with the given key, five-minute access tokens, seven-day refresh tokens,
// rotate-on-use enabled, and single-active-refresh per subject.
func DefaultConfig(signingKey []byte) Config {
	return Config{
		SigningMethod:   SigningMethodHS256,
		SigningKey:      signingKey,
		AccessTokenTTL:  5 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		TokenLookup:     "header:Authorization",
		AuthScheme:      "Bearer",
		ContextKey:      "user",
		RotateOnUse:     true,
	}
}

// Normalize fills zero-valued fields with the package defaults. It does not
// touch the boolean modes; their zero values are meaningful.
func (c Config) Normalize() Config {
	if c.SigningMethod == "" {
		c.SigningMethod = SigningMethodHS256
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = 5 * time.Minute
	}
	if c.RefreshTokenTTL == 0 {
		c.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if c.TokenLookup == "" {
		c.TokenLookup = "header:Authorization"
	}
	if c.AuthScheme == "" {
		c.AuthScheme = "Bearer"
	}
	if c.ContextKey == "" {
		c.ContextKey = "user"
	}
	return c
}

// Validate reports configuration that cannot produce a working codec.
func (c Config) Validate() error {
	switch c.SigningMethod {
	case SigningMethodHS256:
		if len(c.SigningKey) == 0 {
			return errors.New("HS256 requires a signing key", errors.CategoryBadInput)
		}
	case SigningMethodEdDSA:
		if len(c.SigningKey) == 0 {
			return errors.New("EdDSA requires a private signing key", errors.CategoryBadInput)
		}
		if len(c.VerifyKey) == 0 {
			return errors.New("EdDSA requires a public verify key", errors.CategoryBadInput)
		}
	default:
		return errors.New("unsupported signing method: "+c.SigningMethod, errors.CategoryBadInput)
	}

	if c.AccessTokenTTL < 0 || c.RefreshTokenTTL < 0 {
		return errors.New("token TTLs must be non-negative", errors.CategoryBadInput)
	}

	if c.RefreshTokenTTL > 0 && c.AccessTokenTTL > c.RefreshTokenTTL {
		return errors.New("access token TTL exceeds refresh token TTL", errors.CategoryBadInput)
	}

	return nil
}
