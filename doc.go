// Package accounts implements a minimal user-account system: registration,
// login, and profile read/update over a JSON HTTP surface, guarded by a
// Bearer-token middleware.
//
// The pieces compose in dependency order:
//   - Users is the credential store, a bun backed repository keyed by unique
//     email and username columns.
//   - HashPassword/ComparePasswordAndHash delegate one-way hashing to bcrypt.
//   - TokenService issues and verifies signed, time-limited identity tokens
//     (HS256, subject carries the account id).
//   - middleware/jwtware gates requests: extract token, validate, resolve the
//     account, attach it to the request context.
//   - AccountController exposes the register/login/profile handlers.
//
// Tokens are stateless; validity is signature plus expiry, so there is no
// revocation before natural expiry.
package accounts
