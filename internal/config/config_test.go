package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Pagination.PageSize)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessExpiry)
	assert.Equal(t, 24*time.Hour, cfg.JWT.RefreshExpiry)
	assert.False(t, cfg.Auth.OpenWrites)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Empty(t, cfg.CORS.AllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("SERVER_ENV", "production")
	t.Setenv("DB_DRIVER", "Memory")
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("AUTH_OPEN_WRITES", "true")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.True(t, cfg.Server.IsProduction())
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 25, cfg.Pagination.PageSize)
	assert.True(t, cfg.Auth.OpenWrites)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoadIgnoresNonPositivePageSize(t *testing.T) {
	t.Setenv("PAGE_SIZE", "0")

	assert.Equal(t, 10, Load().Pagination.PageSize)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: DriverMemory},
			JWT:      JWTConfig{Secret: "s", AccessExpiry: time.Minute, RefreshExpiry: time.Hour},
		}
	}
	require.NoError(t, valid().Validate())

	noSecret := valid()
	noSecret.JWT.Secret = ""
	assert.Error(t, noSecret.Validate())

	badDriver := valid()
	badDriver.Database.Driver = "sqlite"
	assert.Error(t, badDriver.Validate())

	badLimit := valid()
	badLimit.RateLimit = RateLimitConfig{Enabled: true}
	assert.Error(t, badLimit.Validate())
}
