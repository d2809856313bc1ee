package flows

import (
	"context"
	"errors"
	"time"

	"github.com/bricola/authcore/account"
)

// RunLogin exchanges credentials for a token pair. Checks run in a fixed
// order: credentials, then verification, then the active flag.
func RunLogin(ctx context.Context, email, password string, deps Deps) (Outcome, error) {
	if !deps.ready() {
		return Outcome{}, deps.Errors.EngineNotReady
	}

	start := time.Now()
	defer func() {
		if deps.Observe != nil {
			deps.Observe(deps.Metrics.LoginLatency, time.Since(start))
		}
	}()

	acct, err := deps.Store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			if deps.DummyDigest != "" {
				_, _ = deps.VerifyPassword(password, deps.DummyDigest)
			}
			deps.inc(deps.Metrics.LoginFailure)
			return Outcome{}, deps.Errors.InvalidCredentials
		}
		return Outcome{}, deps.Errors.Internal(err)
	}

	ok, err := deps.VerifyPassword(password, acct.PasswordDigest)
	if err != nil {
		return Outcome{}, deps.Errors.Internal(err)
	}
	if !ok {
		deps.inc(deps.Metrics.LoginFailure)
		return Outcome{}, deps.Errors.InvalidCredentials
	}
	if !acct.Loginable() {
		deps.inc(deps.Metrics.LoginFailure)
		if !acct.EmailVerified {
			return Outcome{}, deps.Errors.EmailNotVerified
		}
		return Outcome{}, deps.Errors.UserNotActive
	}

	pair, digest, err := deps.issue(acct)
	if err != nil {
		return Outcome{}, deps.Errors.Internal(err)
	}

	patch := account.Patch{RefreshTokenDigest: account.Set(digest)}
	if deps.NeedsRehash != nil && deps.NeedsRehash(acct.PasswordDigest) {
		if rehashed, err := deps.HashPassword(password); err == nil {
			patch.PasswordDigest = account.Set(rehashed)
		} else {
			deps.warn("flows: password rehash for %v failed: %v", acct.ID, err)
		}
	}

	updated, err := deps.Store.Update(ctx, acct.ID, patch)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			deps.inc(deps.Metrics.LoginFailure)
			return Outcome{}, deps.Errors.InvalidCredentials
		}
		return Outcome{}, deps.Errors.Internal(err)
	}

	deps.inc(deps.Metrics.LoginSuccess)
	return Outcome{Message: MsgLoggedIn, Tokens: &pair, Account: updated}, nil
}
