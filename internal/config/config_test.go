package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "HS256", cfg.JWT.Algorithm)
	assert.Equal(t, "neuro-butler", cfg.JWT.Issuer)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 30*time.Minute, cfg.JWT.RefreshTTL)
	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Equal(t, "none", cfg.Events.Backend)
	assert.Contains(t, cfg.Gate.ProtectedPrefixes, "/api/v1/auth/logout")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JWT_ALGORITHM", "hs512")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "15")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("AUTH_PROTECTED_PREFIXES", "/a, /b,,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "HS512", cfg.JWT.Algorithm)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, []string{"/a", "/b"}, cfg.Gate.ProtectedPrefixes)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"asymmetric algorithm", "JWT_ALGORITHM", "RS256"},
		{"unknown algorithm", "JWT_ALGORITHM", "none"},
		{"zero refresh ttl", "REFRESH_TOKEN_EXPIRE_MINUTES", "0"},
		{"bcrypt cost too high", "BCRYPT_COST", "40"},
		{"unknown driver", "DB_DRIVER", "oracle"},
		{"unknown events backend", "EVENTS_BACKEND", "sqs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestProdRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "a-real-secret")
	_, err = Load()
	require.NoError(t, err)
}

func TestRateLimitNormalize(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	rl := LoadRateLimitConfig()
	assert.Equal(t, 1, rl.Capacity)
	assert.Equal(t, 5*time.Minute, rl.TTL)
}
