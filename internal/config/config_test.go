package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/niaga-platform/service-revenue-scanner/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "8010", cfg.App.Port)
	require.Equal(t, "2025-01", cfg.Shopify.APIVersion)
	require.Equal(t, 365, cfg.Scan.OrderLookbackDays)
	require.Equal(t, 3, cfg.Scan.MaxRetries)
	require.Equal(t, 24*time.Hour, cfg.Recovery.ReminderCooldown)
	require.Equal(t, 168*time.Hour, cfg.Recovery.DiscountTTL)
	require.Equal(t, []string{"https://admin.shopify.com"}, cfg.CORS.Origins())
	require.Empty(t, cfg.Redis.Addr())
	require.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("SHOPIFY_API_KEY", "key")
	t.Setenv("SCAN_ORDER_LOOKBACK_DAYS", "90")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("RECOVERY_REMINDER_COOLDOWN", "2h")
	t.Setenv("ALLOWED_ORIGINS", "https://admin.shopify.com, https://demo.example.com ,")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "key", cfg.Shopify.APIKey)
	require.Equal(t, 90, cfg.Scan.OrderLookbackDays)
	require.Equal(t, "redis:6380", cfg.Redis.Addr())
	require.Equal(t, 2*time.Hour, cfg.Recovery.ReminderCooldown)
	require.Equal(t, []string{"https://admin.shopify.com", "https://demo.example.com"}, cfg.CORS.Origins())
	require.Equal(t, "staging", cfg.Sentry.Environment)
}

func TestLoadRequiresCredentialsInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SHOPIFY_API_KEY", "")
	t.Setenv("SHOPIFY_API_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)

	t.Setenv("SHOPIFY_API_KEY", "key")
	t.Setenv("SHOPIFY_API_SECRET", "secret")
	cfg, err := config.Load()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
}

func TestLoadRejectsInvalidLookback(t *testing.T) {
	t.Setenv("SCAN_ORDER_LOOKBACK_DAYS", "0")

	_, err := config.Load()
	require.Error(t, err)
}
