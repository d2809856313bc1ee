// Package internal contains helpers private to authcore: single-use code
// generation, refresh token digests and constant-time comparison.
//
// # Sub-packages
//
//   - flows: account lifecycle orchestration behind every Engine operation
//
// # What this package must NOT do
//
//   - Export types that appear in the public authcore API.
package internal
