// Package internal contains helpers that are intentionally private to
// authcore.
//
// # Sub-packages
//
//   - audit — async event dispatch (Dispatcher + Sink implementations)
//   - lockout — Redis-backed failed-attempt tracker with lazy unlock
//   - stores — Redis-backed MFA enrollment and login-challenge stores
//
// # What this package must NOT do
//
//   - Export types that appear in the public authcore API surface directly.
//   - Be imported by any package outside the authcore module.
package internal
