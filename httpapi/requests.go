package httpapi

import (
	"encoding/json"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/bricola/authcore/account"
)

var phonePrefixRe = regexp.MustCompile(`^\+\d{1,4}$`)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	Type        string      `json:"type"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Country     string      `json:"country"`
	Prefix      string      `json:"prefix"`
	PhoneNumber json.Number `json:"phoneNumber"`
}

// Validate will validate the payload
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 72)),
		validation.Field(&r.Type, validation.Required, validation.In(
			string(account.UserTypeIndividual),
			string(account.UserTypeBusiness),
		)),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Country, validation.Required, validation.Length(2, 64)),
		validation.Field(&r.Prefix, validation.Required, validation.Match(phonePrefixRe)),
		validation.Field(&r.PhoneNumber, validation.Required, validation.Length(4, 15), is.Digit),
	)
}

func (r RegisterRequest) profile() account.Profile {
	return account.Profile{
		Type:        account.UserType(r.Type),
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Country:     r.Country,
		PhonePrefix: r.Prefix,
		PhoneNumber: r.PhoneNumber.String(),
	}
}

// VerifyEmailRequest is the body of POST /auth/verify-email.
type VerifyEmailRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// Validate will validate the payload
func (r VerifyEmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Token, validation.Required),
	)
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will validate the payload
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// EmailRequest is the body of the resend and forgot password routes.
type EmailRequest struct {
	Email string `json:"email"`
}

// Validate will validate the payload
func (r EmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// ResetPasswordRequest is the body of PATCH /auth/reset-password.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// Validate will validate the payload
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(1, 72)),
	)
}

// ChangeEmailRequest is the body of POST /auth/change-email.
type ChangeEmailRequest struct {
	NewEmail string `json:"newEmail"`
}

// Validate will validate the payload
func (r ChangeEmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NewEmail, validation.Required, validation.Length(3, 254), is.Email),
	)
}

// AccountStatusRequest is the body of PATCH /users/{id}/status.
type AccountStatusRequest struct {
	Active *bool  `json:"active"`
	Motive string `json:"motive"`
}

// Validate will validate the payload
func (r AccountStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Active, validation.NotNil),
		validation.Field(&r.Motive, validation.Length(0, 500)),
	)
}
