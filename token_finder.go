package auth

import "context"

var rawTokenCtxKey = &contextKey{"raw_token"}

// WithRawToken stashes the raw bearer token in the context so a TokenFinder
// can pick it up later. Transport adapters call this after extracting the
// token from wherever the host framework carries it.
func WithRawToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, rawTokenCtxKey, token)
}

// RawTokenFromContext returns the stashed raw token, if any.
func RawTokenFromContext(ctx context.Context) (string, bool) {
	raw, ok := ctx.Value(rawTokenCtxKey).(string)
	return raw, ok && raw != ""
}

// ContextTokenFinder reads the token a transport adapter stashed with
// WithRawToken. This is the default finder for TokenRequired.
func ContextTokenFinder(ctx context.Context) (string, error) {
	raw, ok := RawTokenFromContext(ctx)
	if !ok {
		return "", ErrNoEmptyString
	}
	return raw, nil
}

// StaticTokenFinder always returns the given token. Mostly useful in tests.
func StaticTokenFinder(token string) TokenFinder {
	return func(context.Context) (string, error) {
		if token == "" {
			return "", ErrNoEmptyString
		}
		return token, nil
	}
}
