// Package jwt signs and verifies the HS256 tokens that represent an
// authenticated session.
//
// [Codec] is the stateless sign/verify primitive. [Service] pairs it with the
// configured access and refresh secrets and TTLs, issuing both tokens of a
// session from one identity.
//
// Verification failures are collapsed to two sentinels: [ErrTokenExpired] when
// the only problem is an elapsed exp claim, and [ErrTokenInvalid] for every
// other failure (bad signature, malformed input, unexpected algorithm).
package jwt
