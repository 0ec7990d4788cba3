package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ENV", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, ,https://b.example.com ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTTL)
	assert.Equal(t, 168*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 0.15, cfg.CommissionRate)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.InternalToken)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("APP_ENV", "dev")

	t.Setenv("SESSION_TTL", "forever")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("COMMISSION_RATE", "1.5")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_ProdNeedsSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SESSION_TOKEN_PEPPER", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "real-secret")
	t.Setenv("SESSION_TOKEN_PEPPER", "real-pepper")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.AppEnv)
}
