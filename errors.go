package authcore

import "errors"

// Kind classifies engine failures. The set is closed: every error returned by
// an Engine operation has exactly one Kind.
type Kind uint8

const (
	KindInternal Kind = iota
	KindWeakPassword
	KindEmailAlreadyExists
	KindEmailAlreadyVerified
	KindEmailNotVerified
	KindInvalidCredentials
	KindInvalidToken
	KindTokenExpired
	KindUserNotActive
	KindNotFound
)

var kindNames = [...]string{
	KindInternal:             "Internal",
	KindWeakPassword:         "WeakPassword",
	KindEmailAlreadyExists:   "EmailAlreadyExists",
	KindEmailAlreadyVerified: "EmailAlreadyVerified",
	KindEmailNotVerified:     "EmailNotVerified",
	KindInvalidCredentials:   "InvalidCredentials",
	KindInvalidToken:         "InvalidToken",
	KindTokenExpired:         "TokenExpired",
	KindUserNotActive:        "UserNotActive",
	KindNotFound:             "NotFound",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Error is the error type returned by Engine operations. Message is stable
// and safe to show to clients; Err, when set, carries the underlying cause
// for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so errors.Is(err, ErrInvalidToken)
// holds regardless of the wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrWeakPassword = &Error{
		Kind:    KindWeakPassword,
		Message: "Password must contain at least 8 characters, one uppercase letter, one lowercase letter, one number, and one special character",
	}
	ErrEmailAlreadyExists   = &Error{Kind: KindEmailAlreadyExists, Message: "Email already registered"}
	ErrEmailAlreadyVerified = &Error{Kind: KindEmailAlreadyVerified, Message: "Email already verified"}
	ErrEmailNotVerified     = &Error{Kind: KindEmailNotVerified, Message: "Email not verified. Please verify your email before logging in."}
	ErrInvalidCredentials   = &Error{Kind: KindInvalidCredentials, Message: "Invalid email or password"}
	ErrInvalidToken         = &Error{Kind: KindInvalidToken, Message: "Invalid token"}
	ErrTokenExpired         = &Error{Kind: KindTokenExpired, Message: "Token has expired"}
	ErrUserNotActive        = &Error{Kind: KindUserNotActive, Message: "User account is not active"}
	ErrNotFound             = &Error{Kind: KindNotFound, Message: "User not found"}
	ErrInternal             = &Error{Kind: KindInternal, Message: "Internal server error"}

	// ErrEngineNotReady is returned by a zero or partially built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// KindOf reports the Kind of err. Errors outside the taxonomy are
// KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func internalError(err error) error {
	return &Error{Kind: KindInternal, Message: ErrInternal.Message, Err: err}
}
