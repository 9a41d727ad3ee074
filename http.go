package auth

import (
	"context"
	"net/http"

	"github.com/goliatone/go-authguard/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteGuard protects go-router routes with the directive pipeline. The JWT
// middleware handles token extraction and verification; the remaining
// directives run against the resolved identity before the handler fires.
type RouteGuard struct {
	cfg        Config
	tokens     TokenValidator
	identities IdentityResolver
	Logger     Logger
	// DenialHandler renders a denial to the client. Swappable for hosts
	// that need a custom wire shape.
	DenialHandler func(c router.Context, denial *Denial) error
}

func NewRouteGuard(cfg Config, tokens TokenValidator, identities IdentityResolver) *RouteGuard {
	g := &RouteGuard{
		cfg:        cfg,
		tokens:     tokens,
		identities: identities,
		Logger:     defLogger{},
	}
	g.DenialHandler = g.defaultDenialHandler
	return g
}

// Protected builds middleware that requires a valid access token and passes
// the given assertion directives.
func (g *RouteGuard) Protected(directives ...AuthDirective) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		ware := jwtware.New(jwtware.Config{
			TokenValidator: jwtValidatorAdapter{g.tokens},
			ErrorHandler:   g.tokenErrorHandler,
			SigningKey: jwtware.SigningKey{
				Key:    g.cfg.SigningKey,
				JWTAlg: g.cfg.SigningMethod,
			},
			AuthScheme:  g.cfg.AuthScheme,
			ContextKey:  g.cfg.ContextKey,
			TokenLookup: g.cfg.TokenLookup,
			ContextEnricher: func(ctx context.Context, claims jwtware.AuthClaims) context.Context {
				if ac, ok := claims.(claimsAdapter); ok {
					return WithClaimsContext(ctx, ac.AuthClaims)
				}
				return ctx
			},
			SuccessHandler: func(ctx router.Context) error {
				return g.runDirectives(ctx, directives)
			},
		})
		return ware(hf)
	}
}

func (g *RouteGuard) runDirectives(ctx router.Context, directives []AuthDirective) error {
	op := Operation{Path: ctx.Path()}
	res := &Resolution{}

	if claims, ok := GetClaims(ctx.Context()); ok {
		res.Claims = claims

		if g.identities != nil {
			identity, err := g.identities.LoadIdentity(ctx.Context(), claims.Subject())
			if err != nil {
				return g.DenialHandler(ctx, &Denial{
					Code:    DenialInvalidToken,
					Message: "Invalid token.",
				})
			}
			res.Identity = identity
		}
	}

	for _, directive := range directives {
		if denial := directive.ResolvePermission(ctx.Context(), res, op); denial != nil {
			return g.DenialHandler(ctx, denial)
		}
	}

	if res.Identity != nil {
		ctx.SetContext(WithIdentity(ctx.Context(), res.Identity))
	}

	return ctx.Next()
}

func (g *RouteGuard) tokenErrorHandler(ctx router.Context, err error) error {
	denial := &Denial{Code: DenialInvalidToken, Message: "Invalid token."}
	if IsTokenExpiredError(err) {
		denial = &Denial{Code: DenialExpiredToken, Message: "Token is expired."}
	}
	return g.DenialHandler(ctx, denial)
}

func (g *RouteGuard) defaultDenialHandler(c router.Context, denial *Denial) error {
	g.Logger.Info(
		"request denied: code=%s path=%s detail=%s",
		denial.Code,
		c.Path(),
		print.MaybePrettyJSON(denial),
	)

	return c.JSON(denialStatus(denial.Code), map[string]any{
		"success": false,
		"errors": FieldErrorMap{
			NonFieldErrors: []FieldError{{
				Message: denial.Message,
				Code:    string(denial.Code),
			}},
		},
	})
}

func denialStatus(code DenialCode) int {
	switch code {
	case DenialNotVerified, DenialNoSufficientPermissions:
		return http.StatusForbidden
	default:
		return http.StatusUnauthorized
	}
}

// ToRichError converts a denial into the package's rich error vocabulary for
// callers that report through go-errors.
func (g *RouteGuard) ToRichError(denial *Denial) *errors.Error {
	if denial == nil {
		return nil
	}
	if rich, ok := denialError(denial).(*errors.Error); ok {
		return rich
	}
	return errors.New(denial.Message, errors.CategoryAuth).
		WithTextCode(string(denial.Code))
}

// jwtValidatorAdapter bridges the package validator to the middleware's
// minimal claims surface.
type jwtValidatorAdapter struct {
	tokens TokenValidator
}

func (a jwtValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := a.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claimsAdapter{claims}, nil
}

type claimsAdapter struct {
	AuthClaims
}
