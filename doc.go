// Package auth provides the token lifecycle and policy enforcement core used
// to guard schema-driven APIs: JWT issuance and verification, a stateful
// refresh-token store with rotation and revocation, and declarative auth
// directives evaluated by a short-circuiting pipeline before protected
// operations run.
//
// Directives:
//   - TokenRequired, IsAuthenticated, IsVerified, and HasPermission implement
//     the AuthDirective contract. TokenRequired is the only directive allowed
//     to mutate the per-request Resolution (it attaches the Identity it
//     resolves from the bearer token), so callers must order it before the
//     directives that assert on identity state. The Pipeline never reorders.
//
// Tokens:
//   - Access tokens are stateless JWTs validated by signature and expiry
//     alone. Refresh tokens are also JWTs but each one is backed by a
//     persisted record that can be revoked or rotated; a revoked or rotated
//     record never resolves again.
//
// Mutations:
//   - ObtainTokens, RefreshToken, RevokeToken, VerifyAccount, and SwapEmails
//     handlers compose the codec, the store, and the repositories into atomic
//     state transitions. Every handler reports through the same response
//     shape: success flag, field-keyed errors, and an operation payload that
//     is present exactly when the operation succeeded.
package auth
