// Package middleware exposes net/http adapters that enforce session
// authentication on top of authcore.Engine token validation.
//
// # Guards
//
//   - [RequireSession] — verifies the bearer token and injects the user
//     projection into the request context.
//   - [RequireRole] — [RequireSession] plus a role allowlist.
//
// Each guard reads the Authorization header, calls Engine.ValidateSession,
// and makes the validated user available via [UserFromContext].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// Engine.ValidateSession.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine).
//   - Access Redis or the user store (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject and the role allowlist.
package middleware
