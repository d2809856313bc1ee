package authcore

import (
	"github.com/bricola/authcore/account"
	"github.com/bricola/authcore/jwt"
)

// UserStore persists accounts. See account.Store for the contract.
type UserStore = account.Store

// TokenPair is an access/refresh token pair.
type TokenPair = jwt.Pair

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Email    string
	Password string
	Profile  account.Profile
}

// Result is returned by every successful lifecycle operation. Tokens is set
// only by operations that start a session; Account holds the record as
// stored after the operation, when the operation touched it.
type Result struct {
	Message string
	Tokens  *TokenPair
	Account *account.Account
}

// Principal is the caller behind a verified access token.
type Principal struct {
	Account *account.Account
	Claims  *jwt.Claims
}
