package flows

import (
	"context"
	"errors"

	"github.com/bricola/authcore/account"
	"github.com/bricola/authcore/jwt"
)

// RunAuthenticate resolves an access token to its current account. The
// account must still exist and be active.
func RunAuthenticate(ctx context.Context, accessToken string, deps Deps) (Outcome, error) {
	if !deps.ready() {
		return Outcome{}, deps.Errors.EngineNotReady
	}

	claims, err := deps.VerifyAccess(accessToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Outcome{}, deps.Errors.TokenExpired
		}
		return Outcome{}, deps.Errors.InvalidToken
	}

	acct, err := deps.Store.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return Outcome{}, deps.Errors.InvalidToken
		}
		return Outcome{}, deps.Errors.Internal(err)
	}
	if !acct.IsActive {
		return Outcome{}, deps.Errors.UserNotActive
	}

	return Outcome{Account: acct, Claims: claims}, nil
}
