package authcore

import (
	"errors"
	"time"

	"github.com/bricola/authcore/password"
)

// Config holds every tunable of the engine. Build it once, typically from
// DefaultConfig, and treat it as immutable afterwards.
type Config struct {
	JWT           JWTConfig
	Password      PasswordConfig
	PasswordReset PasswordResetConfig
	Notifier      NotifierConfig
	Metrics       MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig holds the session token secrets and lifetimes.
type JWTConfig struct {
	AccessSecret  []byte
	AccessTTL     time.Duration
	RefreshSecret []byte
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds hashing parameters. SaltRounds is the bcrypt cost.
type PasswordConfig struct {
	SaltRounds int
}

/*
====================================
PASSWORD RESET CONFIG
====================================
*/

// PasswordResetConfig controls the reset code window.
type PasswordResetConfig struct {
	TokenTTL time.Duration
}

/*
====================================
NOTIFIER CONFIG
====================================
*/

// NotifierConfig controls the asynchronous mail queue.
type NotifierConfig struct {
	Brand       string
	QueueSize   int
	DropIfFull  bool
	SendTimeout time.Duration
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production defaults. Secrets are left empty and
// must be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Password: PasswordConfig{
			SaltRounds: password.DefaultCost,
		},
		PasswordReset: PasswordResetConfig{
			TokenTTL: 15 * time.Minute,
		},
		Notifier: NotifierConfig{
			Brand:       "Bricola",
			QueueSize:   256,
			DropIfFull:  true,
			SendTimeout: 30 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

// Validate reports the first invalid setting in c.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.AccessSecret) == 0 {
		return errors.New("JWT AccessSecret is required")
	}
	if len(c.JWT.RefreshSecret) == 0 {
		return errors.New("JWT RefreshSecret is required")
	}
	if string(c.JWT.AccessSecret) == string(c.JWT.RefreshSecret) {
		return errors.New("JWT AccessSecret and RefreshSecret must differ")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be greater than AccessTTL")
	}

	// Password
	if c.Password.SaltRounds < 4 || c.Password.SaltRounds > 31 {
		return errors.New("Password SaltRounds must be between 4 and 31")
	}

	// Password reset
	if c.PasswordReset.TokenTTL <= 0 {
		return errors.New("PasswordReset TokenTTL must be > 0")
	}

	// Notifier
	if c.Notifier.QueueSize <= 0 {
		return errors.New("Notifier QueueSize must be > 0")
	}
	if c.Notifier.SendTimeout < 0 {
		return errors.New("Notifier SendTimeout must be >= 0")
	}

	return nil
}
