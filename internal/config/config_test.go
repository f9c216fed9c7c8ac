package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/impulso-galeria/auth-service/internal/config"
)

func setRequired(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/impulso")
	t.Setenv("SHOP_ID", "12345")
	t.Setenv("OAUTH_CLIENT_ID", "client-abc")
	t.Setenv("OAUTH_REDIRECT_URI", "https://gallery.example/auth/callback")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.HTTPPort)
	require.Equal(t, time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, 30*24*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, 600*time.Second, cfg.OAuthStateTTL)
	require.False(t, cfg.IsProduction())
}

func TestLoadFailsFastOnMissingRequiredValues(t *testing.T) {
	setRequired(t)
	t.Setenv("SHOP_ID", "")
	t.Setenv("OAUTH_CLIENT_ID", "")

	_, err := config.Load()
	require.ErrorIs(t, err, config.ErrMissing)
	require.Contains(t, err.Error(), "SHOP_ID")
	require.Contains(t, err.Error(), "OAUTH_CLIENT_ID")
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")
	t.Setenv("RATE_LIMIT_RPM", "120")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 120, cfg.RateLimitRPM)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}
