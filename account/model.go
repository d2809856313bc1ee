package account

import "time"

// Role is the authorization role embedded in issued tokens.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// UserType distinguishes private renters from professional listers.
type UserType string

const (
	UserTypeIndividual UserType = "INDIVIDUAL"
	UserTypeBusiness   UserType = "BUSINESS"
)

// Profile carries the registration fields that are not part of the
// credential lifecycle.
type Profile struct {
	Type        UserType `json:"type"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Country     string   `json:"country"`
	PhonePrefix string   `json:"prefix"`
	PhoneNumber string   `json:"phoneNumber"`
}

// Account is the central user record. Empty strings and zero times stand for
// absent values.
type Account struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	PasswordDigest     string    `json:"-"`
	EmailVerified      bool      `json:"emailVerified"`
	VerifyToken        string    `json:"-"`
	PendingNewEmail    string    `json:"pendingNewEmail,omitempty"`
	ResetToken         string    `json:"-"`
	ResetTokenExpiry   time.Time `json:"-"`
	RefreshTokenDigest string    `json:"-"`
	Role               Role      `json:"role"`
	IsActive           bool      `json:"isActive"`
	Profile            Profile   `json:"profile"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Loginable reports whether credentials for a may be exchanged for tokens.
func (a *Account) Loginable() bool {
	return a != nil && a.IsActive && a.EmailVerified
}

// Clone returns a copy that shares no mutable state with a.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	return &out
}
