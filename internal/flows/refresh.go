package flows

import (
	"context"
	"errors"

	"github.com/bricola/authcore/account"
	"github.com/bricola/authcore/jwt"
)

// RunRefresh rotates a refresh token. The presented token must match the
// stored digest; the swap to the new digest is conditional on that digest
// still being current, so a replayed or concurrently used token fails.
func RunRefresh(ctx context.Context, refreshToken string, deps Deps) (Outcome, error) {
	if !deps.ready() {
		return Outcome{}, deps.Errors.EngineNotReady
	}

	claims, err := deps.VerifyRefresh(refreshToken)
	if err != nil {
		deps.inc(deps.Metrics.RefreshFailure)
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Outcome{}, deps.Errors.TokenExpired
		}
		return Outcome{}, deps.Errors.InvalidToken
	}

	acct, err := deps.Store.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			deps.inc(deps.Metrics.RefreshFailure)
			return Outcome{}, deps.Errors.InvalidToken
		}
		return Outcome{}, deps.Errors.Internal(err)
	}

	presented := deps.RefreshDigest(refreshToken)
	if !deps.SecureEqual(presented, acct.RefreshTokenDigest) {
		deps.inc(deps.Metrics.RefreshFailure)
		deps.inc(deps.Metrics.RefreshReuseDetected)
		deps.warn("flows: stale refresh token presented for %v", acct.ID)
		return Outcome{}, deps.Errors.InvalidToken
	}
	if !acct.IsActive {
		deps.inc(deps.Metrics.RefreshFailure)
		return Outcome{}, deps.Errors.UserNotActive
	}

	pair, digest, err := deps.issue(acct)
	if err != nil {
		return Outcome{}, deps.Errors.Internal(err)
	}

	updated, err := deps.Store.Update(ctx, acct.ID, account.Patch{
		RefreshTokenDigest:       account.Set(digest),
		ExpectRefreshTokenDigest: account.Set(presented),
	})
	if err != nil {
		switch {
		case errors.Is(err, account.ErrPreconditionFailed), errors.Is(err, account.ErrNotFound):
			deps.inc(deps.Metrics.RefreshFailure)
			deps.inc(deps.Metrics.RefreshReuseDetected)
			deps.warn("flows: refresh token for %v rotated concurrently", acct.ID)
			return Outcome{}, deps.Errors.InvalidToken
		default:
			return Outcome{}, deps.Errors.Internal(err)
		}
	}

	deps.inc(deps.Metrics.RefreshSuccess)
	return Outcome{Message: MsgRefreshed, Tokens: &pair, Account: updated}, nil
}
