package auth

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// NonFieldErrors is the key used for failures that do not belong to a
// specific input field.
const NonFieldErrors = "nonFieldErrors"

// FieldError is a single structured failure surfaced to clients.
type FieldError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// FieldErrorMap groups failures by the input field they relate to.
type FieldErrorMap map[string][]FieldError

// MutationResult is the envelope every mutation handler returns. Exactly one
// of Errors or the payload is populated: Success mirrors which one.
type MutationResult struct {
	Success bool          `json:"success"`
	Errors  FieldErrorMap `json:"errors,omitempty"`
}

// TokenPayload carries freshly minted tokens back to the caller.
type TokenPayload struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// IdentitySummary echoes the authenticated account on login, mirroring the
// claims carried inside the access token.
type IdentitySummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Verified bool   `json:"verified"`
}

func summarizeIdentity(identity Identity) *IdentitySummary {
	if identity == nil {
		return nil
	}
	return &IdentitySummary{
		ID:       identity.ID(),
		Username: identity.Username(),
		Email:    identity.Email(),
		Verified: identity.Verified(),
	}
}

// ObtainResult is the response of the credential login mutation.
type ObtainResult struct {
	MutationResult
	Payload *TokenPayload    `json:"obtainPayload,omitempty"`
	User    *IdentitySummary `json:"user,omitempty"`
}

// RefreshResult is the response of the refresh token rotation mutation.
type RefreshResult struct {
	MutationResult
	Payload *TokenPayload `json:"refreshPayload,omitempty"`
}

// RevokePayload reports the outcome of a revocation.
type RevokePayload struct {
	Revoked bool `json:"revoked"`
}

// RevokeResult is the response of the token revocation mutation.
type RevokeResult struct {
	MutationResult
	Payload *RevokePayload `json:"revokePayload,omitempty"`
}

// VerifyResult is the response of the account verification mutation.
type VerifyResult struct {
	MutationResult
}

// SwapEmailsPayload echoes the emails after a successful exchange.
type SwapEmailsPayload struct {
	Email          string `json:"email"`
	SecondaryEmail string `json:"secondaryEmail,omitempty"`
}

// SwapEmailsResult is the response of the email swap mutation.
type SwapEmailsResult struct {
	MutationResult
	Payload *SwapEmailsPayload `json:"swapPayload,omitempty"`
}

func successResult() MutationResult {
	return MutationResult{Success: true}
}

func failureResult(err error) MutationResult {
	return MutationResult{
		Success: false,
		Errors:  fieldErrorsFrom(err),
	}
}

// fieldErrorsFrom flattens an error into the client facing map. Validation
// errors keep their field keys; everything else lands under nonFieldErrors.
func fieldErrorsFrom(err error) FieldErrorMap {
	if err == nil {
		return nil
	}

	out := FieldErrorMap{}

	var vErrs validation.Errors
	if errors.As(err, &vErrs) {
		for field, fieldErr := range vErrs {
			if fieldErr == nil {
				continue
			}
			out[field] = append(out[field], FieldError{Message: fieldErr.Error()})
		}
		if len(out) > 0 {
			return out
		}
	}

	var richErr *goerrors.Error
	if errors.As(err, &richErr) {
		out[NonFieldErrors] = []FieldError{{
			Message: richErr.Message,
			Code:    richErr.TextCode,
		}}
		return out
	}

	out[NonFieldErrors] = []FieldError{{Message: err.Error()}}
	return out
}
