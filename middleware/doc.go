// Package middleware exposes HTTP guards built on authcore.Engine.
//
// # Guards
//
//   - [Guard] verifies the bearer access token through Engine.Authenticate
//     and stores the resulting principal in the request context.
//   - [RequireRole] rejects principals without the given role. It must run
//     after Guard.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT parse
// JWTs or touch the account store itself.
package middleware
