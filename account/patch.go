package account

import "time"

// Field is an optional patch value. The zero value leaves the target field
// untouched.
type Field[T any] struct {
	Set   bool
	Value T
}

// Set returns a Field that assigns v.
func Set[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Clear returns a Field that assigns the zero value of T.
func Clear[T any]() Field[T] {
	var zero T
	return Field[T]{Set: true, Value: zero}
}

// Patch is a partial update. Expect* fields are preconditions: the update is
// applied only when every set precondition equals the stored value, otherwise
// the store returns ErrPreconditionFailed and changes nothing.
type Patch struct {
	Email              Field[string]
	PasswordDigest     Field[string]
	EmailVerified      Field[bool]
	VerifyToken        Field[string]
	PendingNewEmail    Field[string]
	ResetToken         Field[string]
	ResetTokenExpiry   Field[time.Time]
	RefreshTokenDigest Field[string]
	IsActive           Field[bool]

	ExpectVerifyToken        Field[string]
	ExpectResetToken         Field[string]
	ExpectRefreshTokenDigest Field[string]
}

// Apply writes every set field of p onto a and stamps UpdatedAt.
// Preconditions are not evaluated here.
func (p Patch) Apply(a *Account, now time.Time) {
	if p.Email.Set {
		a.Email = p.Email.Value
	}
	if p.PasswordDigest.Set {
		a.PasswordDigest = p.PasswordDigest.Value
	}
	if p.EmailVerified.Set {
		a.EmailVerified = p.EmailVerified.Value
	}
	if p.VerifyToken.Set {
		a.VerifyToken = p.VerifyToken.Value
	}
	if p.PendingNewEmail.Set {
		a.PendingNewEmail = p.PendingNewEmail.Value
	}
	if p.ResetToken.Set {
		a.ResetToken = p.ResetToken.Value
	}
	if p.ResetTokenExpiry.Set {
		a.ResetTokenExpiry = p.ResetTokenExpiry.Value
	}
	if p.RefreshTokenDigest.Set {
		a.RefreshTokenDigest = p.RefreshTokenDigest.Value
	}
	if p.IsActive.Set {
		a.IsActive = p.IsActive.Value
	}
	a.UpdatedAt = now
}

// Holds reports whether every precondition of p is satisfied by a.
func (p Patch) Holds(a *Account) bool {
	if p.ExpectVerifyToken.Set && a.VerifyToken != p.ExpectVerifyToken.Value {
		return false
	}
	if p.ExpectResetToken.Set && a.ResetToken != p.ExpectResetToken.Value {
		return false
	}
	if p.ExpectRefreshTokenDigest.Set && a.RefreshTokenDigest != p.ExpectRefreshTokenDigest.Value {
		return false
	}
	return true
}
