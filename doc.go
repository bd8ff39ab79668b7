// Package authcore authenticates end users and protects accounts from
// credential-guessing attacks and compromised passwords. It provides
// argon2id password verification with a k-anonymity breach check,
// redis-backed progressive lockout with lazy expiry, purpose-scoped
// stateless tokens for sessions and email flows, and TOTP-based step-up
// MFA, composed through [Engine].
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the orchestration surface. The crypto and protocol primitives
// live in the public subpackages (password, token, totp, breach, captcha)
// and are usable on their own; redis-backed coordination (lockout state,
// MFA enrollment and challenge records, audit dispatch) lives under
// internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Return or log password hashes, plaintext passwords, or TOTP secrets
//     outside the one-time enrollment response.
//   - Persist tokens: session and email tokens are stateless, validity is
//     signature plus embedded expiry.
//   - Run background workers: lockout expiry is lazy, evaluated on the next
//     status check.
package authcore
