package authcore

import (
	"context"

	"github.com/bricola/authcore/internal/flows"
)

// VerifyEmail consumes a verification code for email and starts a session.
//
// email is matched against primary addresses first. If none matches, it is
// matched against pending new addresses and, on success, replaces the
// account's primary email. The code is single use.
func (e *Engine) VerifyEmail(ctx context.Context, email, token string) (*Result, error) {
	deps, err := e.deps()
	if err != nil {
		return nil, err
	}

	out, err := flows.RunVerifyEmail(ctx, email, token, deps)
	if err != nil {
		logFailure(ctx, "VerifyEmail", email, err)
		return nil, err
	}
	return toResult(out), nil
}

// ResendVerificationEmail issues a new verification code for an unverified
// account. The previous code stops working.
func (e *Engine) ResendVerificationEmail(ctx context.Context, email string) (*Result, error) {
	deps, err := e.deps()
	if err != nil {
		return nil, err
	}

	out, err := flows.RunResendVerification(ctx, email, deps)
	if err != nil {
		logFailure(ctx, "ResendVerificationEmail", email, err)
		return nil, err
	}
	return toResult(out), nil
}

// RequestEmailChange records newEmail as pending for userID and mails a
// verification code to it. Complete the change with VerifyEmail(newEmail,
// code).
func (e *Engine) RequestEmailChange(ctx context.Context, userID, newEmail string) (*Result, error) {
	deps, err := e.deps()
	if err != nil {
		return nil, err
	}

	out, err := flows.RunRequestEmailChange(ctx, userID, newEmail, deps)
	if err != nil {
		logFailure(ctx, "RequestEmailChange", userID, err)
		return nil, err
	}
	return toResult(out), nil
}
