package flows

import (
	"context"
	"time"

	"github.com/bricola/authcore/account"
	"github.com/bricola/authcore/jwt"
)

// Deps groups the collaborators every flow needs. The root engine builds it
// once and passes it by value.
type Deps struct {
	Store account.Store

	HashPassword   func(plain string) (string, error)
	VerifyPassword func(plain, digest string) (bool, error)
	NeedsRehash    func(digest string) bool
	CheckPolicy    func(plain string) error
	// DummyDigest is compared against when the account does not exist so
	// that unknown emails cost as much as wrong passwords.
	DummyDigest string

	IssuePair     func(jwt.Identity) (jwt.Pair, error)
	VerifyAccess  func(token string) (*jwt.Claims, error)
	VerifyRefresh func(token string) (*jwt.Claims, error)
	RefreshDigest func(token string) string
	SecureEqual   func(presented, stored string) bool

	NewVerifyCode func() (string, error)
	NewID         func() string
	Now           func() time.Time
	ResetTTL      time.Duration

	Mail    Mail
	Inc     func(metric int)
	Observe func(metric int, d time.Duration)
	Warn    func(format string, args ...any)

	Errors  Errors
	Metrics Metrics
}

// Mail renders and queues outbound messages. Delivery failures never reach
// the caller.
type Mail struct {
	Verification  func(ctx context.Context, to, code string)
	PasswordReset func(ctx context.Context, to, code string, validity time.Duration)
	EmailChange   func(ctx context.Context, to, code string)
	AccountStatus func(ctx context.Context, to string, active bool, motive string)
}

// Errors carries the root error values flows return.
type Errors struct {
	EngineNotReady       error
	WeakPassword         error
	EmailAlreadyExists   error
	EmailAlreadyVerified error
	EmailNotVerified     error
	InvalidCredentials   error
	InvalidToken         error
	TokenExpired         error
	UserNotActive        error
	NotFound             error
	Internal             func(error) error
}

// Metrics carries the root metric identifiers.
type Metrics struct {
	RegisterSuccess            int
	RegisterFailure            int
	EmailVerificationSuccess   int
	EmailVerificationFailure   int
	EmailChangeRequest         int
	EmailChangeSuccess         int
	VerificationResend         int
	LoginSuccess               int
	LoginFailure               int
	RefreshSuccess             int
	RefreshFailure             int
	RefreshReuseDetected       int
	PasswordResetRequest       int
	PasswordResetConfirmOK     int
	PasswordResetConfirmFailed int
	Logout                     int
	AccountActivated           int
	AccountDeactivated         int
	LoginLatency               int
}

// Outcome is the result of a successful flow.
type Outcome struct {
	Message string
	Tokens  *jwt.Pair
	Account *account.Account
	Claims  *jwt.Claims
}

const (
	MsgRegistered         = "User registered successfully, please check your email to verify your account."
	MsgEmailVerified      = "Email verified successfully"
	MsgEmailChanged       = "Email updated and verified successfully"
	MsgLoggedIn           = "Login successful"
	MsgVerificationResent = "Verification email sent successfully"
	MsgResetEmailSent     = "Reset password email sent successfully"
	MsgPasswordReset      = "Password reset successfully"
	MsgRefreshed          = "Token refreshed successfully"
	MsgLoggedOut          = "Logged out successfully"
	MsgEmailChangeSent    = "Verification email sent to the new address"
	MsgAccountActivated   = "Account activated successfully"
	MsgAccountDeactivated = "Account deactivated successfully"
)

func (d Deps) ready() bool {
	return d.Store != nil && d.IssuePair != nil && d.HashPassword != nil
}

func (d Deps) inc(metric int) {
	if d.Inc != nil {
		d.Inc(metric)
	}
}

func (d Deps) warn(format string, args ...any) {
	if d.Warn != nil {
		d.Warn(format, args...)
	}
}

func (d Deps) identity(a *account.Account) jwt.Identity {
	return jwt.Identity{
		Subject: a.ID,
		Email:   a.Email,
		Role:    string(a.Role),
	}
}

// issue signs a new pair for a and returns it with the digest of its refresh
// token.
func (d Deps) issue(a *account.Account) (jwt.Pair, string, error) {
	pair, err := d.IssuePair(d.identity(a))
	if err != nil {
		return jwt.Pair{}, "", err
	}
	return pair, d.RefreshDigest(pair.RefreshToken), nil
}
