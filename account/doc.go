// Package account defines the persisted user identity record, the partial
// update type applied to it, and the storage contract the engine consumes.
//
// # Architecture boundaries
//
// Stores own atomicity. Every conditional field on a [Patch] must be checked
// and applied in one step so that single-use tokens cannot be consumed twice.
//
// # What this package must NOT do
//
//   - Hash passwords or sign tokens.
//   - Decide lifecycle transitions; that belongs to the engine.
package account
