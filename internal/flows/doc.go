// Package flows contains the orchestration for every account lifecycle
// operation of the engine.
//
// Each Run* function receives a Deps value and returns an Outcome. Flows
// hold no state between calls and never import the root package; errors are
// taken from Deps.Errors so the root package keeps ownership of its error
// taxonomy.
//
// # Ordering
//
// Every write goes through account.Store.Update with a precondition on the
// credential being consumed (verification code, reset code, refresh digest).
// Two concurrent requests presenting the same credential therefore observe
// exactly one success.
package flows
