package authcore

import (
	"context"

	"github.com/bricola/authcore/internal/flows"
)

// Register creates an unverified USER account and mails its verification
// code. The password must satisfy password.ValidatePolicy. No tokens are
// issued.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	deps, err := e.deps()
	if err != nil {
		return nil, err
	}

	out, err := flows.RunRegister(ctx, flows.RegisterInput{
		Email:    in.Email,
		Password: in.Password,
		Profile:  in.Profile,
	}, deps)
	if err != nil {
		logFailure(ctx, "Register", in.Email, err)
		return nil, err
	}

	log.Infof("Registered account %v", out.Account.ID)
	return toResult(out), nil
}

// SetAccountActive activates or deactivates userID and mails the owner with
// motive. Deactivation revokes the current refresh token; login and refresh
// fail with ErrUserNotActive until the account is reactivated.
func (e *Engine) SetAccountActive(ctx context.Context, userID string, active bool, motive string) (*Result, error) {
	deps, err := e.deps()
	if err != nil {
		return nil, err
	}

	out, err := flows.RunSetAccountActive(ctx, userID, active, motive, deps)
	if err != nil {
		logFailure(ctx, "SetAccountActive", userID, err)
		return nil, err
	}

	log.Infof("Account %v active=%v", userID, active)
	return toResult(out), nil
}
