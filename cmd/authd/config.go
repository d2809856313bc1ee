package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bricola/authcore"
)

const (
	storeMemory   = "memory"
	storeRedis    = "redis"
	storePostgres = "postgres"
)

type config struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	SaltRounds    int
	ResetTokenTTL time.Duration

	HTTPAddr string
	AppEnv   string

	StoreDriver string
	RedisAddr   string
	RedisPrefix string
	DatabaseURL string

	SMTPHost       string
	SMTPUser       string
	SMTPPassword   string
	MailFrom       string
	SMTPSkipVerify bool

	NotifyQueueSize  int
	NotifyDropIfFull bool

	LogFile  string
	LogLevel string
}

func loadConfig() (*config, error) {
	v := viper.New()

	v.SetDefault("access_ttl", "15m")
	v.SetDefault("refresh_ttl", "7d")
	v.SetDefault("salt_rounds", 10)
	v.SetDefault("reset_token_ttl", "15m")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("app_env", "local")
	v.SetDefault("store_driver", storeMemory)
	v.SetDefault("redis_prefix", "acct")
	v.SetDefault("notify_queue_size", 256)
	v.SetDefault("notify_drop_if_full", true)
	v.SetDefault("log_level", "info")

	v.AutomaticEnv()

	cfg := &config{
		AccessSecret:     v.GetString("access_secret"),
		RefreshSecret:    v.GetString("refresh_secret"),
		SaltRounds:       v.GetInt("salt_rounds"),
		HTTPAddr:         v.GetString("http_addr"),
		AppEnv:           v.GetString("app_env"),
		StoreDriver:      strings.ToLower(v.GetString("store_driver")),
		RedisAddr:        v.GetString("redis_addr"),
		RedisPrefix:      v.GetString("redis_prefix"),
		DatabaseURL:      v.GetString("database_url"),
		SMTPHost:         v.GetString("smtp_host"),
		SMTPUser:         v.GetString("smtp_user"),
		SMTPPassword:     v.GetString("smtp_password"),
		MailFrom:         v.GetString("mail_from"),
		SMTPSkipVerify:   v.GetBool("smtp_skip_verify"),
		NotifyQueueSize:  v.GetInt("notify_queue_size"),
		NotifyDropIfFull: v.GetBool("notify_drop_if_full"),
		LogFile:          v.GetString("log_file"),
		LogLevel:         v.GetString("log_level"),
	}

	var err error
	if cfg.AccessTTL, err = parseDuration(v.GetString("access_ttl")); err != nil {
		return nil, fmt.Errorf("ACCESS_TTL: %w", err)
	}
	if cfg.RefreshTTL, err = parseDuration(v.GetString("refresh_ttl")); err != nil {
		return nil, fmt.Errorf("REFRESH_TTL: %w", err)
	}
	if cfg.ResetTokenTTL, err = parseDuration(v.GetString("reset_token_ttl")); err != nil {
		return nil, fmt.Errorf("RESET_TOKEN_TTL: %w", err)
	}

	switch cfg.StoreDriver {
	case storeMemory:
	case storeRedis:
		if cfg.RedisAddr == "" {
			return nil, errors.New("REDIS_ADDR is required for the redis store")
		}
	case storePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres store")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

// parseDuration accepts time.ParseDuration syntax plus a whole-day "d"
// suffix such as "7d".
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

func (c *config) secureCookies() bool {
	return c.AppEnv != "local"
}

func (c *config) smtpConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPassword != ""
}

// engineConfig maps the environment onto the engine defaults.
func (c *config) engineConfig() authcore.Config {
	ec := authcore.DefaultConfig()
	ec.JWT.AccessSecret = []byte(c.AccessSecret)
	ec.JWT.AccessTTL = c.AccessTTL
	ec.JWT.RefreshSecret = []byte(c.RefreshSecret)
	ec.JWT.RefreshTTL = c.RefreshTTL
	ec.Password.SaltRounds = c.SaltRounds
	ec.PasswordReset.TokenTTL = c.ResetTokenTTL
	ec.Notifier.QueueSize = c.NotifyQueueSize
	ec.Notifier.DropIfFull = c.NotifyDropIfFull
	return ec
}
