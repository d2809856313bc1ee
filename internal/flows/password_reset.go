package flows

import (
	"context"
	"errors"
	"time"

	"github.com/bricola/authcore/account"
)

// RunSendResetPasswordEmail stores a fresh reset code with its expiry and
// mails it to the account owner.
func RunSendResetPasswordEmail(ctx context.Context, email string, deps Deps) (Outcome, error) {
	if !deps.ready() {
		return Outcome{}, deps.Errors.EngineNotReady
	}

	acct, err := deps.Store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return Outcome{}, deps.Errors.NotFound
		}
		return Outcome{}, deps.Errors.Internal(err)
	}

	code, err := deps.NewVerifyCode()
	if err != nil {
		return Outcome{}, deps.Errors.Internal(err)
	}
	expiry := deps.Now().Add(deps.ResetTTL)

	if _, err := deps.Store.Update(ctx, acct.ID, account.Patch{
		ResetToken:       account.Set(code),
		ResetTokenExpiry: account.Set(expiry),
	}); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return Outcome{}, deps.Errors.NotFound
		}
		return Outcome{}, deps.Errors.Internal(err)
	}

	deps.Mail.PasswordReset(ctx, acct.Email, code, deps.ResetTTL)
	deps.inc(deps.Metrics.PasswordResetRequest)

	return Outcome{Message: MsgResetEmailSent}, nil
}

// RunResetPassword consumes a reset code, replaces the password and starts a
// new session. The previous refresh token stops working.
func RunResetPassword(ctx context.Context, email, token, newPassword string, deps Deps) (Outcome, error) {
	if !deps.ready() {
		return Outcome{}, deps.Errors.EngineNotReady
	}

	acct, err := deps.Store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			deps.inc(deps.Metrics.PasswordResetConfirmFailed)
			return Outcome{}, deps.Errors.NotFound
		}
		return Outcome{}, deps.Errors.Internal(err)
	}

	if !deps.SecureEqual(token, acct.ResetToken) {
		deps.inc(deps.Metrics.PasswordResetConfirmFailed)
		return Outcome{}, deps.Errors.InvalidToken
	}
	if !acct.ResetTokenExpiry.IsZero() && acct.ResetTokenExpiry.Before(deps.Now()) {
		deps.inc(deps.Metrics.PasswordResetConfirmFailed)
		return Outcome{}, deps.Errors.TokenExpired
	}
	if err := deps.CheckPolicy(newPassword); err != nil {
		deps.inc(deps.Metrics.PasswordResetConfirmFailed)
		return Outcome{}, deps.Errors.WeakPassword
	}

	digest, err := deps.HashPassword(newPassword)
	if err != nil {
		return Outcome{}, deps.Errors.Internal(err)
	}
	pair, refreshDigest, err := deps.issue(acct)
	if err != nil {
		return Outcome{}, deps.Errors.Internal(err)
	}

	updated, err := deps.Store.Update(ctx, acct.ID, account.Patch{
		PasswordDigest:     account.Set(digest),
		ResetToken:         account.Clear[string](),
		ResetTokenExpiry:   account.Clear[time.Time](),
		RefreshTokenDigest: account.Set(refreshDigest),
		ExpectResetToken:   account.Set(acct.ResetToken),
	})
	if err != nil {
		switch {
		case errors.Is(err, account.ErrPreconditionFailed):
			deps.inc(deps.Metrics.PasswordResetConfirmFailed)
			return Outcome{}, deps.Errors.InvalidToken
		case errors.Is(err, account.ErrNotFound):
			return Outcome{}, deps.Errors.NotFound
		default:
			return Outcome{}, deps.Errors.Internal(err)
		}
	}

	deps.inc(deps.Metrics.PasswordResetConfirmOK)
	return Outcome{Message: MsgPasswordReset, Tokens: &pair, Account: updated}, nil
}
