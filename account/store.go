package account

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no account matches the lookup key.
	ErrNotFound = errors.New("account not found")
	// ErrEmailTaken is returned when a create or update would give two
	// accounts the same primary email.
	ErrEmailTaken = errors.New("email already taken")
	// ErrPreconditionFailed is returned when a Patch precondition does not
	// match the stored record.
	ErrPreconditionFailed = errors.New("account precondition failed")
)

// Store persists accounts. Implementations must be safe for concurrent use
// and must evaluate Patch preconditions atomically with the write.
type Store interface {
	Create(ctx context.Context, a *Account) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByPendingEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	Update(ctx context.Context, id string, p Patch) (*Account, error)
}
