package flows

import (
	"context"
	"errors"

	"github.com/bricola/authcore/account"
)

// RunLogout clears the stored refresh digest of userID. Access tokens already
// issued stay valid until they expire.
func RunLogout(ctx context.Context, userID string, deps Deps) (Outcome, error) {
	if !deps.ready() {
		return Outcome{}, deps.Errors.EngineNotReady
	}

	if _, err := deps.Store.Update(ctx, userID, account.Patch{
		RefreshTokenDigest: account.Clear[string](),
	}); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return Outcome{}, deps.Errors.NotFound
		}
		return Outcome{}, deps.Errors.Internal(err)
	}

	deps.inc(deps.Metrics.Logout)
	return Outcome{Message: MsgLoggedOut}, nil
}
