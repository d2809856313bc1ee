// Package password implements bcrypt hashing and the account password policy.
//
// The [Bcrypt] work factor comes from configuration (SALT_ROUNDS). Digests
// produced with a lower cost than the configured one are reported by
// [Bcrypt.NeedsRehash] so the caller can upgrade them after a successful login.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive digests.
//   - Import any other authcore package.
//   - Log plaintext passwords.
package password
