package flows

import (
	"context"
	"errors"

	"github.com/bricola/authcore/account"
)

// RunSetAccountActive flips the active flag of userID and notifies the
// account owner. Deactivation also revokes the outstanding refresh token.
func RunSetAccountActive(ctx context.Context, userID string, active bool, motive string, deps Deps) (Outcome, error) {
	if !deps.ready() {
		return Outcome{}, deps.Errors.EngineNotReady
	}

	patch := account.Patch{IsActive: account.Set(active)}
	if !active {
		patch.RefreshTokenDigest = account.Clear[string]()
	}

	updated, err := deps.Store.Update(ctx, userID, patch)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return Outcome{}, deps.Errors.NotFound
		}
		return Outcome{}, deps.Errors.Internal(err)
	}

	deps.Mail.AccountStatus(ctx, updated.Email, active, motive)

	if active {
		deps.inc(deps.Metrics.AccountActivated)
		return Outcome{Message: MsgAccountActivated, Account: updated}, nil
	}
	deps.inc(deps.Metrics.AccountDeactivated)
	return Outcome{Message: MsgAccountDeactivated, Account: updated}, nil
}
