package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"math/big"
)

const (
	verifyCodeLength   = 6
	verifyCodeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	maxCodeAttempts    = 64
)

// NewVerifyCode returns a 6-character code over [a-z0-9] that contains at
// least one letter and at least one digit.
func NewVerifyCode() (string, error) {
	max := big.NewInt(int64(len(verifyCodeAlphabet)))
	buf := make([]byte, verifyCodeLength)

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		for i := range buf {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", err
			}
			buf[i] = verifyCodeAlphabet[n.Int64()]
		}
		if IsVerifyCode(string(buf)) {
			return string(buf), nil
		}
	}
	return "", errors.New("verify code generation exhausted attempts")
}

// IsVerifyCode reports whether code has the verify code shape.
func IsVerifyCode(code string) bool {
	if len(code) != verifyCodeLength {
		return false
	}
	var letter, digit bool
	for i := 0; i < len(code); i++ {
		switch c := code[i]; {
		case c >= 'a' && c <= 'z':
			letter = true
		case c >= '0' && c <= '9':
			digit = true
		default:
			return false
		}
	}
	return letter && digit
}

// RefreshDigest returns the hex SHA-256 of a refresh token. The digest is
// deterministic so stores can compare it in a conditional update.
func RefreshDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SecureEqual compares two secrets in constant time. An empty stored value
// never matches.
func SecureEqual(presented, stored string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) == 1
}
