package flows

import (
	"context"
	"errors"

	"github.com/bricola/authcore/account"
)

// RunVerifyEmail consumes a verification code. The email is first looked up
// as a primary address (registration) and then as a pending new address
// (email change). Both paths end with a fresh token pair.
func RunVerifyEmail(ctx context.Context, email, token string, deps Deps) (Outcome, error) {
	if !deps.ready() {
		return Outcome{}, deps.Errors.EngineNotReady
	}

	acct, err := deps.Store.FindByEmail(ctx, email)
	if err == nil {
		return verifyPrimaryEmail(ctx, acct, token, deps)
	}
	if !errors.Is(err, account.ErrNotFound) {
		return Outcome{}, deps.Errors.Internal(err)
	}

	acct, err = deps.Store.FindByPendingEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			deps.inc(deps.Metrics.EmailVerificationFailure)
			return Outcome{}, deps.Errors.NotFound
		}
		return Outcome{}, deps.Errors.Internal(err)
	}
	return verifyPendingEmail(ctx, acct, token, deps)
}

func verifyPrimaryEmail(ctx context.Context, acct *account.Account, token string, deps Deps) (Outcome, error) {
	if acct.EmailVerified {
		deps.inc(deps.Metrics.EmailVerificationFailure)
		return Outcome{}, deps.Errors.EmailAlreadyVerified
	}
	if !deps.SecureEqual(token, acct.VerifyToken) {
		deps.inc(deps.Metrics.EmailVerificationFailure)
		return Outcome{}, deps.Errors.InvalidToken
	}

	pair, digest, err := deps.issue(acct)
	if err != nil {
		return Outcome{}, deps.Errors.Internal(err)
	}

	updated, err := deps.Store.Update(ctx, acct.ID, account.Patch{
		EmailVerified:      account.Set(true),
		VerifyToken:        account.Clear[string](),
		RefreshTokenDigest: account.Set(digest),
		ExpectVerifyToken:  account.Set(acct.VerifyToken),
	})
	if err != nil {
		return Outcome{}, verifyUpdateError(err, deps)
	}

	deps.inc(deps.Metrics.EmailVerificationSuccess)
	return Outcome{Message: MsgEmailVerified, Tokens: &pair, Account: updated}, nil
}

func verifyPendingEmail(ctx context.Context, acct *account.Account, token string, deps Deps) (Outcome, error) {
	if !deps.SecureEqual(token, acct.VerifyToken) {
		deps.inc(deps.Metrics.EmailVerificationFailure)
		return Outcome{}, deps.Errors.InvalidToken
	}

	promoted := acct.Clone()
	promoted.Email = acct.PendingNewEmail
	pair, digest, err := deps.issue(promoted)
	if err != nil {
		return Outcome{}, deps.Errors.Internal(err)
	}

	updated, err := deps.Store.Update(ctx, acct.ID, account.Patch{
		Email:              account.Set(acct.PendingNewEmail),
		PendingNewEmail:    account.Clear[string](),
		EmailVerified:      account.Set(true),
		VerifyToken:        account.Clear[string](),
		RefreshTokenDigest: account.Set(digest),
		ExpectVerifyToken:  account.Set(acct.VerifyToken),
	})
	if err != nil {
		return Outcome{}, verifyUpdateError(err, deps)
	}

	deps.inc(deps.Metrics.EmailChangeSuccess)
	return Outcome{Message: MsgEmailChanged, Tokens: &pair, Account: updated}, nil
}

func verifyUpdateError(err error, deps Deps) error {
	switch {
	case errors.Is(err, account.ErrPreconditionFailed):
		deps.inc(deps.Metrics.EmailVerificationFailure)
		return deps.Errors.InvalidToken
	case errors.Is(err, account.ErrEmailTaken):
		deps.inc(deps.Metrics.EmailVerificationFailure)
		return deps.Errors.EmailAlreadyExists
	case errors.Is(err, account.ErrNotFound):
		return deps.Errors.NotFound
	default:
		return deps.Errors.Internal(err)
	}
}

// RunResendVerification replaces the verification code of an unverified
// account and sends it again.
func RunResendVerification(ctx context.Context, email string, deps Deps) (Outcome, error) {
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
	if acct.EmailVerified {
		return Outcome{}, deps.Errors.EmailAlreadyVerified
	}

	code, err := deps.NewVerifyCode()
	if err != nil {
		return Outcome{}, deps.Errors.Internal(err)
	}
	if _, err := deps.Store.Update(ctx, acct.ID, account.Patch{VerifyToken: account.Set(code)}); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return Outcome{}, deps.Errors.NotFound
		}
		return Outcome{}, deps.Errors.Internal(err)
	}

	deps.Mail.Verification(ctx, acct.Email, code)
	deps.inc(deps.Metrics.VerificationResend)

	return Outcome{Message: MsgVerificationResent}, nil
}

// RunRequestEmailChange stores newEmail as pending on userID and sends a
// verification code to it. The primary email stays in use until the code is
// consumed by RunVerifyEmail.
func RunRequestEmailChange(ctx context.Context, userID, newEmail string, deps Deps) (Outcome, error) {
	if !deps.ready() {
		return Outcome{}, deps.Errors.EngineNotReady
	}

	acct, err := deps.Store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return Outcome{}, deps.Errors.NotFound
		}
		return Outcome{}, deps.Errors.Internal(err)
	}
	if !acct.IsActive {
		return Outcome{}, deps.Errors.UserNotActive
	}

	if _, err := deps.Store.FindByEmail(ctx, newEmail); err == nil {
		return Outcome{}, deps.Errors.EmailAlreadyExists
	} else if !errors.Is(err, account.ErrNotFound) {
		return Outcome{}, deps.Errors.Internal(err)
	}

	code, err := deps.NewVerifyCode()
	if err != nil {
		return Outcome{}, deps.Errors.Internal(err)
	}
	updated, err := deps.Store.Update(ctx, acct.ID, account.Patch{
		PendingNewEmail: account.Set(newEmail),
		VerifyToken:     account.Set(code),
	})
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return Outcome{}, deps.Errors.NotFound
		}
		return Outcome{}, deps.Errors.Internal(err)
	}

	deps.Mail.EmailChange(ctx, newEmail, code)
	deps.inc(deps.Metrics.EmailChangeRequest)

	return Outcome{Message: MsgEmailChangeSent, Account: updated}, nil
}
