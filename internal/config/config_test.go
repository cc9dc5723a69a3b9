package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:5080", cfg.API.BaseURL)
	require.Equal(t, 7*24*time.Hour, cfg.API.CookieTTL)
	require.Equal(t, "5080", cfg.Mock.Port)
	require.Equal(t, 15*time.Minute, cfg.Mock.AccessTokenTTL)
	require.False(t, cfg.RateLimit.Enabled)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PORTAL_API_URL", "https://portal.example.com")
	t.Setenv("PORTAL_COOKIE_TTL_HOURS", "24")
	t.Setenv("RATE_LIMIT_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://portal.example.com", cfg.API.BaseURL)
	require.Equal(t, 24*time.Hour, cfg.API.CookieTTL)
	require.True(t, cfg.RateLimit.Enabled)
}
