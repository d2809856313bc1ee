package authcore

import (
	"context"

	"github.com/bricola/authcore/internal/flows"
)

// Login exchanges email and password for a token pair. Failures are
// reported in this order: ErrInvalidCredentials, ErrEmailNotVerified,
// ErrUserNotActive. Unknown emails and wrong passwords are
// indistinguishable.
func (e *Engine) Login(ctx context.Context, email, password string) (*Result, error) {
	deps, err := e.deps()
	if err != nil {
		return nil, err
	}

	out, err := flows.RunLogin(ctx, email, password, deps)
	if err != nil {
		logFailure(ctx, "Login", email, err)
		return nil, err
	}
	return toResult(out), nil
}
