package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "development")
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, "/api/v1", cfg.APIRoot)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 365*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 15*time.Minute, cfg.PasswordResetTTL)
	assert.Equal(t, 6, cfg.ConfirmationDigits)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "localhost", cfg.CookieDomain())
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", ":9000")
	t.Setenv("API_ROOT", "api/v2/")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("SERVER_URL", "https://api.lshop.example:8443")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Address())
	assert.Equal(t, "/api/v2", cfg.APIRoot)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, "api.lshop.example", cfg.CookieDomain())
}

func TestLoadRejectsSharedSecrets(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("REFRESH_TOKEN_SECRET", "access-secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestLoadRequiresStoresOutsideDevelopment(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "REDIS_URL")
}

func TestLoadMailProvider(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("MAIL_PROVIDER", "resend")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMAIL_SERVICE_API_KEY")

	t.Setenv("MAIL_PROVIDER", "pigeon")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown MAIL_PROVIDER")
}
