package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// FiberTokenExtractor pulls the raw bearer token out of a fiber request
// following the configured TokenLookup sources.
func FiberTokenExtractor(cfg Config) func(c *fiber.Ctx) string {
	lookup := cfg.TokenLookup
	if lookup == "" {
		lookup = "header:" + fiber.HeaderAuthorization
	}
	scheme := cfg.AuthScheme
	if scheme == "" {
		scheme = "Bearer"
	}

	return func(c *fiber.Ctx) string {
		for _, source := range strings.Split(lookup, ",") {
			parts := strings.SplitN(strings.TrimSpace(source), ":", 2)
			if len(parts) != 2 {
				continue
			}

			name := strings.TrimSpace(parts[1])
			var raw string

			switch strings.TrimSpace(parts[0]) {
			case "header":
				raw = c.Get(name)
				if raw != "" && scheme != "" {
					l := len(scheme)
					// the scheme must be followed by a space, so
					// "BearerXtoken" never reads as a bearer credential
					if len(raw) > l+1 && strings.EqualFold(raw[:l], scheme) && raw[l] == ' ' {
						raw = strings.TrimSpace(raw[l+1:])
					} else {
						raw = ""
					}
				}
			case "query":
				raw = c.Query(name)
			case "param":
				raw = c.Params(name)
			case "cookie":
				raw = c.Cookies(name)
			}

			if raw != "" {
				return raw
			}
		}

		return ""
	}
}

// FiberGuard adapts the directive pipeline to a fiber middleware. The raw
// token is stashed in the user context for TokenRequired's finder, denials
// render as the standard envelope, and the resolved identity survives into
// the handler's context.
func FiberGuard(pipeline *Pipeline, cfg Config) fiber.Handler {
	extract := FiberTokenExtractor(cfg)

	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if token := extract(c); token != "" {
			ctx = WithRawToken(ctx, token)
		}

		ctx, denial := pipeline.Evaluate(ctx, Operation{Path: c.Path()})
		if denial != nil {
			return c.Status(denialStatus(denial.Code)).JSON(fiber.Map{
				"success": false,
				"errors": FieldErrorMap{
					NonFieldErrors: []FieldError{{
						Message: denial.Message,
						Code:    string(denial.Code),
					}},
				},
			})
		}

		c.SetUserContext(ctx)
		return c.Next()
	}
}
