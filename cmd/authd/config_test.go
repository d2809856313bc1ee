package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "15m", want: 15 * time.Minute},
		{in: "7d", want: 7 * 24 * time.Hour},
		{in: " 1d ", want: 24 * time.Hour},
		{in: "36h", want: 36 * time.Hour},
		{in: "0d", wantErr: true},
		{in: "xd", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tc := range tests {
		got, err := parseDuration(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ACCESS_SECRET", "a")
	t.Setenv("REFRESH_SECRET", "r")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, storeMemory, cfg.StoreDriver)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, 10, cfg.SaltRounds)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.False(t, cfg.secureCookies())
	assert.False(t, cfg.smtpConfigured())

	ec := cfg.engineConfig()
	require.NoError(t, ec.Validate())
	assert.Equal(t, []byte("a"), ec.JWT.AccessSecret)
	assert.Equal(t, 256, ec.Notifier.QueueSize)
	assert.True(t, ec.Notifier.DropIfFull)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("REFRESH_TTL", "30d")
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORE_DRIVER", "Redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("NOTIFY_DROP_IF_FULL", "false")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, storeRedis, cfg.StoreDriver)
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTTL)
	assert.True(t, cfg.secureCookies())
	assert.False(t, cfg.NotifyDropIfFull)
}

func TestLoadConfigRejects(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "mongo")
		_, err := loadConfig()
		assert.Error(t, err)
	})
	t.Run("postgres without url", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "postgres")
		_, err := loadConfig()
		assert.Error(t, err)
	})
	t.Run("bad ttl", func(t *testing.T) {
		t.Setenv("ACCESS_TTL", "fast")
		_, err := loadConfig()
		assert.Error(t, err)
	})
}
