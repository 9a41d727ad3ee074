package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// Stable wire values surfaced in denial codes and error text codes.
const (
	TextCodeUnauthenticated         = "UNAUTHENTICATED"
	TextCodeNotVerified             = "NOT_VERIFIED"
	TextCodeNoSufficientPermissions = "NO_SUFFICIENT_PERMISSIONS"
	TextCodeInvalidToken            = "INVALID_TOKEN"
	TextCodeExpiredToken            = "EXPIRED_TOKEN"
	TextCodeSecondaryEmailRequired  = "SECONDARY_EMAIL_REQUIRED"

	textCodeTokenNotFound      = "TOKEN_NOT_FOUND"
	textCodeTokenRevoked       = "TOKEN_REVOKED"
	textCodeAlreadyVerified    = "ALREADY_VERIFIED"
	textCodeInvalidCredentials = "INVALID_CREDENTIALS"
)

// ErrTokenExpired is returned for tokens whose signature is valid but whose
// lifetime has passed. Distinct from ErrTokenMalformed so callers can pick
// EXPIRED_TOKEN over INVALID_TOKEN.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeExpiredToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for forged, truncated, or otherwise
// undecodable tokens. Never retryable.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenNotFound is returned when a refresh token has no persisted record.
var ErrTokenNotFound = goerrors.New("refresh token not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeTokenNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrTokenRevoked is returned when a refresh token record exists but has been
// revoked or superseded by rotation.
var ErrTokenRevoked = goerrors.New("refresh token has been revoked", goerrors.CategoryConflict).
	WithTextCode(textCodeTokenRevoked).
	WithCode(goerrors.CodeConflict)

// ErrUnauthenticated rejects anonymous access to protected operations.
var ErrUnauthenticated = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrNotVerified rejects identities that never confirmed their account.
var ErrNotVerified = goerrors.New("account is not verified", goerrors.CategoryAuthz).
	WithTextCode(TextCodeNotVerified).
	WithCode(goerrors.CodeForbidden)

// ErrNoSufficientPermissions rejects identities missing a required permission.
var ErrNoSufficientPermissions = goerrors.New("insufficient permissions", goerrors.CategoryAuthz).
	WithTextCode(TextCodeNoSufficientPermissions).
	WithCode(goerrors.CodeForbidden)

// ErrSecondaryEmailRequired is returned by SwapEmails when the account has no
// secondary email on record.
var ErrSecondaryEmailRequired = goerrors.New("secondary email required", goerrors.CategoryValidation).
	WithTextCode(TextCodeSecondaryEmailRequired).
	WithCode(goerrors.CodeBadRequest)

// ErrAlreadyVerified is returned when verifying an account twice.
var ErrAlreadyVerified = goerrors.New("account is already verified", goerrors.CategoryConflict).
	WithTextCode(textCodeAlreadyVerified).
	WithCode(goerrors.CodeConflict)

// ErrMismatchedHashAndPassword is the credential failure reported for both
// unknown identifiers and wrong passwords, so responses do not leak which
// part was wrong.
var ErrMismatchedHashAndPassword = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrTooManyLoginAttempts is returned once an account exceeds the attempt
// budget within the cooldown window.
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryRateLimit).
	WithCode(goerrors.CodeBadRequest)

// ErrIdentityNotFound is returned for subjects that do not resolve to a
// usable account, including archived ones.
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrNoEmptyString rejects empty required inputs (passwords, tokens).
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens, covering both our rich
// error and the raw jwt library sentinel.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenExpired) || errors.Is(err, jwt.ErrTokenExpired)
}

// IsMalformedError will check for undecodable token errors. Any rich error
// carrying the INVALID_TOKEN text code counts, so wrapped validation
// failures classify the same as the sentinel itself.
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) || errors.Is(err, jwt.ErrTokenMalformed) {
		return true
	}
	var richErr *goerrors.Error
	return errors.As(err, &richErr) && richErr.TextCode == TextCodeInvalidToken
}
