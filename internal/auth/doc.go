// Package auth provides authentication and authorisation for ascrm.
//
// It implements the credential and access core:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - Stateless HS256 session tokens (no server-side session table)
//   - Location membership as the single authorisation primitive
//
// Access control is deliberately flat: a user may act on a location iff
// a (user, location) membership row exists. The membership role column
// is informational and never consulted by the guard. There is no
// revocation list for session tokens; a token is valid until expiry,
// and removing a membership takes effect on the next guarded request.
package auth
