package flows

import (
	"context"
	"errors"

	"github.com/bricola/authcore/account"
)

// RegisterInput is the caller-supplied part of a new account.
type RegisterInput struct {
	Email    string
	Password string
	Profile  account.Profile
}

// RunRegister creates an unverified account and sends its verification
// code. No tokens are issued until the email is verified.
func RunRegister(ctx context.Context, in RegisterInput, deps Deps) (Outcome, error) {
	if !deps.ready() {
		return Outcome{}, deps.Errors.EngineNotReady
	}

	if err := deps.CheckPolicy(in.Password); err != nil {
		deps.inc(deps.Metrics.RegisterFailure)
		return Outcome{}, deps.Errors.WeakPassword
	}

	_, err := deps.Store.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		deps.inc(deps.Metrics.RegisterFailure)
		return Outcome{}, deps.Errors.EmailAlreadyExists
	case !errors.Is(err, account.ErrNotFound):
		return Outcome{}, deps.Errors.Internal(err)
	}

	digest, err := deps.HashPassword(in.Password)
	if err != nil {
		return Outcome{}, deps.Errors.Internal(err)
	}
	code, err := deps.NewVerifyCode()
	if err != nil {
		return Outcome{}, deps.Errors.Internal(err)
	}

	now := deps.Now()
	created, err := deps.Store.Create(ctx, &account.Account{
		ID:             deps.NewID(),
		Email:          in.Email,
		PasswordDigest: digest,
		VerifyToken:    code,
		Role:           account.RoleUser,
		IsActive:       true,
		Profile:        in.Profile,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		if errors.Is(err, account.ErrEmailTaken) {
			deps.inc(deps.Metrics.RegisterFailure)
			return Outcome{}, deps.Errors.EmailAlreadyExists
		}
		return Outcome{}, deps.Errors.Internal(err)
	}

	deps.Mail.Verification(ctx, created.Email, code)
	deps.inc(deps.Metrics.RegisterSuccess)

	return Outcome{Message: MsgRegistered, Account: created}, nil
}
