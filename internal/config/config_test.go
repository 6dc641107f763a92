package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgcfg "github.com/djloghub/portfolio-backend/pkg/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_URL", "postgres://localhost/portfolio")
}

func TestFromEnv_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 3, cfg.MaxSessions)
	assert.Equal(t, 100, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 10000, cfg.RateLimitMaxClients)
	assert.Equal(t, 500*time.Millisecond, cfg.StoreTimeout)
	assert.Equal(t, "auth_events", cfg.AuthEventsTopic)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestFromEnv_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MAX_SESSIONS", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 5, cfg.MaxSessions)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestFromEnv_ShortSecretIsFatal(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_SECRET", "too-short")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestFromEnv_MissingSecretIsFatal(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required env JWT_SECRET")
}

func TestFromEnv_UnparsableValue(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("TOKEN_TTL", "a day")

	_, err := FromEnv()
	require.Error(t, err)

	var envErr *pkgcfg.InvalidEnvError
	require.True(t, errors.As(err, &envErr))
	assert.Equal(t, "TOKEN_TTL", envErr.Key)
}

func TestValidate_Rules(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ServerPort:          8080,
			DatabaseURL:         "postgres://x",
			RedisAddr:           "localhost:6379",
			StoreTimeout:        time.Second,
			JWTSecret:           []byte(testSecret),
			TokenTTL:            time.Hour,
			SessionTTL:          time.Hour,
			MaxSessions:         3,
			RateLimitRequests:   100,
			RateLimitWindow:     time.Minute,
			RateLimitMaxClients: 10,
			BcryptCost:          10,
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"zero sessions", func(c *Config) { c.MaxSessions = 0 }, "MAX_SESSIONS"},
		{"negative window", func(c *Config) { c.RateLimitWindow = -time.Second }, "RATE_LIMIT_WINDOW"},
		{"weak bcrypt", func(c *Config) { c.BcryptCost = 4 }, "BCRYPT_COST"},
		{"admin without password", func(c *Config) { c.AdminUsername = "admin" }, "ADMIN_PASSWORD"},
		{"no database", func(c *Config) { c.DatabaseURL = "" }, "DATABASE_URL"},
		{"session shorter than token", func(c *Config) { c.SessionTTL = 30 * time.Minute }, "SESSION_TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
