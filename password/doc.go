// Package password implements password hashing and comparison with Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Every call to [Hasher.Hash] draws a fresh random salt, so two hashes of the
// same password differ while remaining mutually comparable through
// [Hasher.Compare].
//
// # Comparison contract
//
// [Hasher.Compare] is total: a malformed or unsupported stored hash yields
// false, never an error, so credential checks cannot be short-circuited by
// corrupt storage. The underlying digest comparison is constant-time.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Enforce password policy (length, breach status); that is the Engine's job.
//   - Log plaintext passwords.
package password
