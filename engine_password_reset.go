package authcore

import (
	"context"

	"github.com/bricola/authcore/internal/flows"
)

// SendResetPasswordEmail stores a reset code valid for
// PasswordReset.TokenTTL and mails it.
func (e *Engine) SendResetPasswordEmail(ctx context.Context, email string) (*Result, error) {
	deps, err := e.deps()
	if err != nil {
		return nil, err
	}

	out, err := flows.RunSendResetPasswordEmail(ctx, email, deps)
	if err != nil {
		logFailure(ctx, "SendResetPasswordEmail", email, err)
		return nil, err
	}
	return toResult(out), nil
}

// ResetPassword replaces the password using a reset code and starts a new
// session, revoking the previous refresh token.
func (e *Engine) ResetPassword(ctx context.Context, email, token, newPassword string) (*Result, error) {
	deps, err := e.deps()
	if err != nil {
		return nil, err
	}

	out, err := flows.RunResetPassword(ctx, email, token, newPassword, deps)
	if err != nil {
		logFailure(ctx, "ResetPassword", email, err)
		return nil, err
	}
	return toResult(out), nil
}
