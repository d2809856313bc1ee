package authcore

import (
	"context"

	"github.com/bricola/authcore/internal/flows"
)

// RefreshToken rotates refreshToken into a new pair. Each refresh token is
// accepted once; replays and losers of a concurrent race get
// ErrInvalidToken.
func (e *Engine) RefreshToken(ctx context.Context, refreshToken string) (*Result, error) {
	deps, err := e.deps()
	if err != nil {
		return nil, err
	}

	out, err := flows.RunRefresh(ctx, refreshToken, deps)
	if err != nil {
		logFailure(ctx, "RefreshToken", "-", err)
		return nil, err
	}
	return toResult(out), nil
}

// Logout revokes the refresh token of userID.
func (e *Engine) Logout(ctx context.Context, userID string) (*Result, error) {
	deps, err := e.deps()
	if err != nil {
		return nil, err
	}

	out, err := flows.RunLogout(ctx, userID, deps)
	if err != nil {
		logFailure(ctx, "Logout", userID, err)
		return nil, err
	}
	return toResult(out), nil
}
