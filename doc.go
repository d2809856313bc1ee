// Package authcore implements account lifecycle and session issuance for the
// Bricola marketplace: registration with email verification, credential
// login, password reset, email change, refresh token rotation and logout.
//
// An [Engine] is assembled with [New] and [Builder.Build] and is safe for
// concurrent use afterwards. Persistence is pluggable through [UserStore];
// account.MemoryStore, store/redisstore and store/pgstore ship with the
// module. Outbound mail goes through a notify.Notifier behind a bounded
// asynchronous queue, so mail delivery never fails a request.
//
// # Session model
//
// Each account holds at most one valid refresh token. Its SHA-256 digest is
// stored on the account and every rotation is a compare-and-swap on that
// digest: a token can be redeemed once, and a replayed token is rejected with
// [ErrInvalidToken]. Access tokens are stateless and stay valid until they
// expire.
//
// # Errors
//
// Every operation returns either nil or an error matching exactly one of the
// exported sentinels under errors.Is. Use [KindOf] to switch on the class.
package authcore
