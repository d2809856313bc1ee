package jwt

import (
	"bytes"
	"errors"
	"time"
)

// Config holds the secrets and lifetimes of the session token pair.
type Config struct {
	AccessSecret  []byte
	AccessTTL     time.Duration
	RefreshSecret []byte
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// Pair is an access/refresh token pair issued for one identity.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Service issues and verifies session token pairs. It holds no state beyond
// its configuration and is safe for concurrent use.
type Service struct {
	config Config
	codec  *Codec
}

// NewService validates cfg and returns a Service.
func NewService(cfg Config) (*Service, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("access and refresh secrets are required")
	}
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.AccessTTL >= cfg.RefreshTTL {
		return nil, errors.New("access TTL must be shorter than refresh TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Service{
		config: cfg,
		codec:  NewCodec(cfg.Issuer, cfg.Leeway),
	}, nil
}

// IssuePair signs an access token and a refresh token carrying the same
// identity with their respective secrets and lifetimes.
func (s *Service) IssuePair(id Identity) (Pair, error) {
	access, err := s.codec.Sign(id, s.config.AccessSecret, s.config.AccessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.codec.Sign(id, s.config.RefreshSecret, s.config.RefreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess decodes an access token.
func (s *Service) VerifyAccess(token string) (*Claims, error) {
	return s.codec.Verify(token, s.config.AccessSecret)
}

// VerifyRefresh decodes a refresh token.
func (s *Service) VerifyRefresh(token string) (*Claims, error) {
	return s.codec.Verify(token, s.config.RefreshSecret)
}

// RefreshTTL reports the configured refresh token lifetime.
func (s *Service) RefreshTTL() time.Duration {
	return s.config.RefreshTTL
}
