package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	config Config
	logger Logger
}

// NewTokenService creates a new TokenService instance. The config is
// normalized but not validated here; call cfg.Validate at startup.
func NewTokenService(cfg Config, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		config: cfg.Normalize(),
		logger: logger,
	}
}

// Mint creates a signed token of the given type for the identity, using the
// configured TTL for that type. It returns the token string and its expiry.
func (ts *TokenServiceImpl) Mint(tokenType TokenType, identity Identity) (string, time.Time, error) {
	if identity == nil {
		return "", time.Time{}, goerrors.New("identity is required", goerrors.CategoryBadInput)
	}

	ttl := ts.config.AccessTokenTTL
	if tokenType == TokenTypeRefresh {
		ttl = ts.config.RefreshTokenTTL
	}

	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.config.Issuer,
			Subject:   identity.ID(),
			Audience:  ts.audience(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UID:       identity.ID(),
		Uname:     identity.Username(),
		TokenKind: tokenType,
	}

	ensureTokenID(&claims.RegisteredClaims)

	token, err := ts.SignClaims(claims)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	token := jwt.NewWithClaims(ts.signingMethod(), claims)

	signKey, err := ts.signKey()
	if err != nil {
		return "", err
	}

	signedString, err := token.SignedString(signKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a token string, returning structured claims.
// Expired tokens map to ErrTokenExpired, everything else undecodable to
// ErrTokenMalformed; callers rely on the distinction to pick a denial code.
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{ts.signingMethod().Alg()}),
	}
	if ts.config.Issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.config.Issuer))
	}
	if len(ts.config.Audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.config.Audience[0]))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != ts.signingMethod().Alg() {
			ts.logger.Error("TokenService validate encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.verifyKey()
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate claims")
	return nil, ErrTokenMalformed
}

func (ts *TokenServiceImpl) signingMethod() jwt.SigningMethod {
	if ts.config.SigningMethod == SigningMethodEdDSA {
		return jwt.SigningMethodEdDSA
	}
	return jwt.SigningMethodHS256
}

func (ts *TokenServiceImpl) signKey() (any, error) {
	if ts.config.SigningMethod == SigningMethodEdDSA {
		return parseEdPrivateKey(ts.config.SigningKey)
	}
	return ts.config.SigningKey, nil
}

func (ts *TokenServiceImpl) verifyKey() (any, error) {
	if ts.config.SigningMethod == SigningMethodEdDSA {
		return parseEdPublicKey(ts.config.VerifyKey)
	}
	return ts.config.SigningKey, nil
}

func (ts *TokenServiceImpl) audience() jwt.ClaimStrings {
	if len(ts.config.Audience) == 0 {
		return nil
	}
	aud := make(jwt.ClaimStrings, len(ts.config.Audience))
	copy(aud, ts.config.Audience)
	return aud
}

func (ts *TokenServiceImpl) tokenDefaults() tokenDefaults {
	return tokenDefaults{
		issuer:   ts.config.Issuer,
		audience: ts.audience(),
		ttl:      ts.config.AccessTokenTTL,
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, goerrors.New("invalid ed25519 private key", goerrors.CategoryBadInput)
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, goerrors.New("invalid ed25519 private key type", goerrors.CategoryBadInput)
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, goerrors.New("invalid ed25519 public key", goerrors.CategoryBadInput)
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, goerrors.New("invalid ed25519 public key type", goerrors.CategoryBadInput)
	}
	return edKey, nil
}
