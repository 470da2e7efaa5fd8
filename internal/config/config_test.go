package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("POINTS_CUSTOMER_PERCENT", "7.5")
	t.Setenv("REDEMPTION_COOLDOWN_HOURS", "12")
	t.Setenv("POINTS_CURRENCY", "eur")

	cfg := Load()
	require.Equal(t, "9090", cfg.AppPort)
	require.Equal(t, "EUR", cfg.Points.Currency)
	require.True(t, cfg.Points.CustomerPercent.Equal(decimal.RequireFromString("7.5")))
	require.True(t, cfg.Points.ReferrerPercent.Equal(decimal.NewFromInt(2)))
	require.Equal(t, 12*time.Hour, cfg.Redemption.Cooldown)
	require.Equal(t, 12*time.Hour, cfg.Redemption.ScanTTL)
	require.Equal(t, 60*time.Minute, cfg.Rates.TTL)
	require.False(t, cfg.IsProduction())
}

func TestGetEnvDecimalFallsBackOnGarbage(t *testing.T) {
	t.Setenv("POINTS_REFERRER_PERCENT", "two")
	require.True(t, getEnvDecimal("POINTS_REFERRER_PERCENT", "2").Equal(decimal.NewFromInt(2)))
}
