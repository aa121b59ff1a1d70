package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 256, cfg.Ingest.QueueSize)
	assert.Equal(t, 60, cfg.Ingest.PollIntervalSeconds)
	assert.Equal(t, 30, cfg.Retention.Days)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Metrics)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ESTACION_DATABASE_HOST", "db.internal")
	t.Setenv("ESTACION_DATABASE_PORT", "5433")
	t.Setenv("ESTACION_SERVER_PORT", "9000")
	t.Setenv("ESTACION_SERVER_JWT_SECRET", "test-secret")
	t.Setenv("ESTACION_RETENTION_DAYS", "7")
	t.Setenv("ESTACION_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "test-secret", cfg.Server.JWTSecret)
	assert.Equal(t, 7, cfg.Retention.Days)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestConnString(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "weather_user",
		Password: "secret",
		Name:     "weather_db",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=weather_user password=secret dbname=weather_db sslmode=disable",
		db.ConnString(),
	)
}
