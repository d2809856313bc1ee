package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the SALT_ROUNDS default.
const DefaultCost = 10

// Config holds hashing parameters.
type Config struct {
	Cost int
}

// Bcrypt hashes and verifies passwords. It is safe for concurrent use.
type Bcrypt struct {
	config Config
}

// NewBcrypt validates cfg and returns a hasher. A zero Cost selects
// DefaultCost.
func NewBcrypt(cfg Config) (*Bcrypt, error) {
	if cfg.Cost == 0 {
		cfg.Cost = DefaultCost
	}
	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Bcrypt{config: cfg}, nil
}

// Hash returns the bcrypt digest of plain.
func (b *Bcrypt) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), b.config.Cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plain matches digest. A mismatch is not an error;
// only a malformed digest is.
func (b *Bcrypt) Verify(plain, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// NeedsRehash reports whether digest was produced with a cost below the
// configured one.
func (b *Bcrypt) NeedsRehash(digest string) bool {
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		return false
	}
	return cost < b.config.Cost
}
