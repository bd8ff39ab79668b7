// Package token issues and verifies purpose-scoped bearer tokens.
//
// A token asserts "the holder proved control of email E for purpose P before
// time T". Tokens are signed JWTs (HS256, process-wide secret), carry the
// subject email, a purpose claim, issued-at and expiry, and are never
// persisted: validity is purely a function of the signature and the embedded
// expiry. There is no revocation list — shortening the TTL is the only
// mitigation for a leaked token, and callers must make redeemed effects
// idempotent instead.
//
// Session tokens additionally embed a snapshot of public-safe user attributes
// so authenticated requests can skip a store round-trip. The snapshot is
// stale after any profile mutation until the session is refreshed.
//
// Verification order matters: the signature is checked before any claim is
// trusted, and an expired-but-correctly-signed token fails with [ErrExpired]
// distinctly from a tampered one failing with [ErrInvalid], because callers
// present different messages for each.
package token
