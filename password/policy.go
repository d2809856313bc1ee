package password

import (
	"errors"
	"regexp"
)

// MaxLength is the longest password bcrypt accepts, in bytes. The allowed
// charset is ASCII, so bytes and characters agree.
const MaxLength = 72

// ErrPolicy is returned when a password does not satisfy the policy.
var ErrPolicy = errors.New("password does not satisfy policy")

// RE2 has no lookahead, so the composite policy is split into the charset
// check plus one check per required class.
var (
	allowedCharset  = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]{8,72}$`)
	requiredClasses = []*regexp.Regexp{
		regexp.MustCompile(`[a-z]`),
		regexp.MustCompile(`[A-Z]`),
		regexp.MustCompile(`\d`),
		regexp.MustCompile(`[@$!%*?&]`),
	}
)

// ValidatePolicy requires 8 to MaxLength characters drawn from letters,
// digits and @$!%*?&, with at least one lowercase, one uppercase, one digit and one
// special character.
func ValidatePolicy(plain string) error {
	if !allowedCharset.MatchString(plain) {
		return ErrPolicy
	}
	for _, re := range requiredClasses {
		if !re.MatchString(plain) {
			return ErrPolicy
		}
	}
	return nil
}
