package redisstore

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bricola/authcore/account"
)

// Hash field names.
const (
	fieldID                 = "id"
	fieldEmail              = "email"
	fieldPasswordDigest     = "password_digest"
	fieldEmailVerified      = "email_verified"
	fieldVerifyToken        = "verify_token"
	fieldPendingNewEmail    = "pending_new_email"
	fieldResetToken         = "reset_token"
	fieldResetTokenExpiry   = "reset_token_expiry"
	fieldRefreshTokenDigest = "refresh_token_digest"
	fieldRole               = "role"
	fieldIsActive           = "is_active"
	fieldType               = "type"
	fieldFirstName          = "first_name"
	fieldLastName           = "last_name"
	fieldCountry            = "country"
	fieldPhonePrefix        = "phone_prefix"
	fieldPhoneNumber        = "phone_number"
	fieldCreatedAt          = "created_at"
	fieldUpdatedAt          = "updated_at"
)

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

// encodeAccount flattens a into HSET field/value pairs.
func encodeAccount(a *account.Account) []any {
	return []any{
		fieldID, a.ID,
		fieldEmail, a.Email,
		fieldPasswordDigest, a.PasswordDigest,
		fieldEmailVerified, formatBool(a.EmailVerified),
		fieldVerifyToken, a.VerifyToken,
		fieldPendingNewEmail, a.PendingNewEmail,
		fieldResetToken, a.ResetToken,
		fieldResetTokenExpiry, formatTime(a.ResetTokenExpiry),
		fieldRefreshTokenDigest, a.RefreshTokenDigest,
		fieldRole, string(a.Role),
		fieldIsActive, formatBool(a.IsActive),
		fieldType, string(a.Profile.Type),
		fieldFirstName, a.Profile.FirstName,
		fieldLastName, a.Profile.LastName,
		fieldCountry, a.Profile.Country,
		fieldPhonePrefix, a.Profile.PhonePrefix,
		fieldPhoneNumber, a.Profile.PhoneNumber,
		fieldCreatedAt, formatTime(a.CreatedAt),
		fieldUpdatedAt, formatTime(a.UpdatedAt),
	}
}

func decodeAccount(h map[string]string) (*account.Account, error) {
	if h[fieldID] == "" {
		return nil, account.ErrNotFound
	}

	resetExpiry, err := parseTime(h[fieldResetTokenExpiry])
	if err != nil {
		return nil, fmt.Errorf("decode %v: %w", fieldResetTokenExpiry, err)
	}
	createdAt, err := parseTime(h[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("decode %v: %w", fieldCreatedAt, err)
	}
	updatedAt, err := parseTime(h[fieldUpdatedAt])
	if err != nil {
		return nil, fmt.Errorf("decode %v: %w", fieldUpdatedAt, err)
	}

	return &account.Account{
		ID:                 h[fieldID],
		Email:              h[fieldEmail],
		PasswordDigest:     h[fieldPasswordDigest],
		EmailVerified:      h[fieldEmailVerified] == "1",
		VerifyToken:        h[fieldVerifyToken],
		PendingNewEmail:    h[fieldPendingNewEmail],
		ResetToken:         h[fieldResetToken],
		ResetTokenExpiry:   resetExpiry,
		RefreshTokenDigest: h[fieldRefreshTokenDigest],
		Role:               account.Role(h[fieldRole]),
		IsActive:           h[fieldIsActive] == "1",
		Profile: account.Profile{
			Type:        account.UserType(h[fieldType]),
			FirstName:   h[fieldFirstName],
			LastName:    h[fieldLastName],
			Country:     h[fieldCountry],
			PhonePrefix: h[fieldPhonePrefix],
			PhoneNumber: h[fieldPhoneNumber],
		},
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// patchFields returns the HSET pairs for every set field of p.
func patchFields(p account.Patch, now time.Time) []any {
	out := make([]any, 0, 20)
	add := func(field, value string) {
		out = append(out, field, value)
	}
	if p.Email.Set {
		add(fieldEmail, p.Email.Value)
	}
	if p.PasswordDigest.Set {
		add(fieldPasswordDigest, p.PasswordDigest.Value)
	}
	if p.EmailVerified.Set {
		add(fieldEmailVerified, formatBool(p.EmailVerified.Value))
	}
	if p.VerifyToken.Set {
		add(fieldVerifyToken, p.VerifyToken.Value)
	}
	if p.PendingNewEmail.Set {
		add(fieldPendingNewEmail, p.PendingNewEmail.Value)
	}
	if p.ResetToken.Set {
		add(fieldResetToken, p.ResetToken.Value)
	}
	if p.ResetTokenExpiry.Set {
		add(fieldResetTokenExpiry, formatTime(p.ResetTokenExpiry.Value))
	}
	if p.RefreshTokenDigest.Set {
		add(fieldRefreshTokenDigest, p.RefreshTokenDigest.Value)
	}
	if p.IsActive.Set {
		add(fieldIsActive, formatBool(p.IsActive.Value))
	}
	add(fieldUpdatedAt, formatTime(now))
	return out
}

// expectFields returns the field/value pairs a Patch requires to hold.
func expectFields(p account.Patch) []any {
	var out []any
	if p.ExpectVerifyToken.Set {
		out = append(out, fieldVerifyToken, p.ExpectVerifyToken.Value)
	}
	if p.ExpectResetToken.Set {
		out = append(out, fieldResetToken, p.ExpectResetToken.Value)
	}
	if p.ExpectRefreshTokenDigest.Set {
		out = append(out, fieldRefreshTokenDigest, p.ExpectRefreshTokenDigest.Value)
	}
	return out
}
