package auth

import (
	"context"
	"fmt"
)

// DenialCode is the stable wire value attached to a directive denial.
type DenialCode string

const (
	DenialUnauthenticated         DenialCode = TextCodeUnauthenticated
	DenialNotVerified             DenialCode = TextCodeNotVerified
	DenialNoSufficientPermissions DenialCode = TextCodeNoSufficientPermissions
	DenialInvalidToken            DenialCode = TextCodeInvalidToken
	DenialExpiredToken            DenialCode = TextCodeExpiredToken
)

// Denial is a structured rejection produced by a directive. A nil *Denial
// means the directive passed.
type Denial struct {
	Code    DenialCode `json:"code"`
	Message string     `json:"message"`
}

func (d *Denial) Error() string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// denialError maps a denial back onto the rich error it corresponds to, for
// callers that want an error value rather than a structured denial.
func denialError(d *Denial) error {
	if d == nil {
		return nil
	}
	switch d.Code {
	case DenialExpiredToken:
		return ErrTokenExpired
	case DenialInvalidToken:
		return ErrTokenMalformed
	case DenialNotVerified:
		return ErrNotVerified
	case DenialNoSufficientPermissions:
		return ErrNoSufficientPermissions
	default:
		return ErrUnauthenticated
	}
}

// Operation describes the protected operation being evaluated, mostly so
// permission denials can name what was attempted.
type Operation struct {
	Path string
}

// Resolution is the mutable state shared by the directives guarding a single
// operation. TokenRequired populates it; the assertion directives read it.
type Resolution struct {
	Identity Identity
	Claims   AuthClaims
}

// AuthDirective is a single policy check. Directives run in declared order
// and the first denial wins; see Pipeline.
type AuthDirective interface {
	ResolvePermission(ctx context.Context, res *Resolution, op Operation) *Denial
}

// DirectiveFunc adapts a function to the AuthDirective interface.
type DirectiveFunc func(ctx context.Context, res *Resolution, op Operation) *Denial

func (f DirectiveFunc) ResolvePermission(ctx context.Context, res *Resolution, op Operation) *Denial {
	return f(ctx, res, op)
}

// TokenRequired extracts the bearer token from the request, verifies it, and
// resolves the identity it refers to into the Resolution. A request with no
// token, an undecodable token, or a token whose subject no longer resolves is
// denied with INVALID_TOKEN; a correctly signed but stale token gets
// EXPIRED_TOKEN so clients know a refresh may still save the session.
type TokenRequired struct {
	Finder     TokenFinder
	Tokens     TokenValidator
	Identities IdentityResolver
}

func NewTokenRequired(finder TokenFinder, tokens TokenValidator, identities IdentityResolver) *TokenRequired {
	return &TokenRequired{
		Finder:     finder,
		Tokens:     tokens,
		Identities: identities,
	}
}

func (d *TokenRequired) ResolvePermission(ctx context.Context, res *Resolution, op Operation) *Denial {
	if d.Finder == nil || d.Tokens == nil {
		return &Denial{Code: DenialInvalidToken, Message: "Invalid token."}
	}

	token, err := d.Finder(ctx)
	if err != nil || token == "" {
		return &Denial{Code: DenialInvalidToken, Message: "Invalid token."}
	}

	claims, err := d.Tokens.Validate(token)
	if err != nil {
		if IsTokenExpiredError(err) {
			return &Denial{Code: DenialExpiredToken, Message: "Token is expired."}
		}
		return &Denial{Code: DenialInvalidToken, Message: "Invalid token."}
	}

	res.Claims = claims

	if d.Identities != nil {
		identity, err := d.Identities.LoadIdentity(ctx, claims.Subject())
		if err != nil {
			// an archived or deleted subject is indistinguishable from a
			// forged token as far as the caller is concerned
			return &Denial{Code: DenialInvalidToken, Message: "Invalid token."}
		}
		res.Identity = identity
	}

	return nil
}

// IsAuthenticated denies anonymous access.
type IsAuthenticated struct{}

func (d IsAuthenticated) ResolvePermission(ctx context.Context, res *Resolution, op Operation) *Denial {
	if res == nil || res.Identity == nil {
		return &Denial{Code: DenialUnauthenticated, Message: "User is not authenticated."}
	}
	return nil
}

// IsVerified denies identities that never confirmed their account. An
// anonymous request reads as unverified, so it gets NOT_VERIFIED here and
// only IsAuthenticated reports UNAUTHENTICATED.
type IsVerified struct{}

func (d IsVerified) ResolvePermission(ctx context.Context, res *Resolution, op Operation) *Denial {
	if res == nil || res.Identity == nil || !res.Identity.Verified() {
		return &Denial{Code: DenialNotVerified, Message: "Please verify your account."}
	}
	return nil
}

// HasPermission requires every listed permission. Permissions are checked in
// declared order and the first one missing produces the denial, so callers
// get a deterministic message regardless of how many are absent.
type HasPermission struct {
	Permissions []string
}

func NewHasPermission(permissions ...string) *HasPermission {
	return &HasPermission{Permissions: permissions}
}

func (d *HasPermission) ResolvePermission(ctx context.Context, res *Resolution, op Operation) *Denial {
	// an anonymous caller holds no permissions at all, so the first
	// required permission produces the denial
	for _, permission := range d.Permissions {
		if res == nil || res.Identity == nil || !res.Identity.HasPermission(permission) {
			return &Denial{
				Code: DenialNoSufficientPermissions,
				Message: fmt.Sprintf(
					"User %s has no sufficient permissions for %s",
					identityUsername(res), op.Path,
				),
			}
		}
	}

	return nil
}

func identityUsername(res *Resolution) string {
	if res == nil || res.Identity == nil {
		return ""
	}
	return res.Identity.Username()
}
