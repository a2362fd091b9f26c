package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 8*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.LowStockThreshold)
	assert.Equal(t, "15", cfg.BirthdayBonus.String())
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.True(t, cfg.SeedDemoData)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.False(t, cfg.TrustProxyHeaders)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("LOW_STOCK_THRESHOLD", "3")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TOKEN_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3, cfg.LowStockThreshold)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoad_RequiresSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoad_RejectsBadThreshold(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("LOW_STOCK_THRESHOLD", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_AdminNeedsPassword(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("ADMIN_EMAIL", "owner@bakery.test")
	t.Setenv("ADMIN_PASSWORD", "")

	_, err := Load()
	assert.ErrorContains(t, err, "ADMIN_PASSWORD")

	t.Setenv("ADMIN_PASSWORD", "bread-and-butter")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "owner@bakery.test", cfg.AdminEmail)
}

func TestLoad_RejectsNegativeBirthdayBonus(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("BIRTHDAY_BONUS", "-5")

	_, err := Load()
	assert.ErrorContains(t, err, "BIRTHDAY_BONUS")
}

func TestLoad_RejectsUnknownTimezone(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("BAKERY_TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load()
	assert.ErrorContains(t, err, "BAKERY_TIMEZONE")
}
