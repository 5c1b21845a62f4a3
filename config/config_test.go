// ABOUTME: This file tests configuration loading, defaults, and validation
// ABOUTME: Uses t.Setenv so environment changes are scoped per test
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("should apply defaults when no environment is set", func(t *testing.T) {
		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, 8764, cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
		assert.Empty(t, cfg.Server.AuthToken)
		assert.Equal(t, "data/attentiond.db", cfg.Database.Path)
		assert.Equal(t, 5*time.Second, cfg.Database.BusyTimeout)
		assert.Equal(t, "http://localhost:8765", cfg.Oracle.Host)
		assert.Equal(t, "/api/v1/evaluate", cfg.Oracle.APIPath)
		assert.Equal(t, time.Hour, cfg.Cycle.Interval)
		assert.True(t, cfg.Cycle.RunImmediately)
		assert.Equal(t, 4, cfg.Cycle.IngestConcurrency)
		assert.Equal(t, 2.0, cfg.Cycle.FetchRatePerSec)
		assert.Equal(t, 168*time.Hour, cfg.Cycle.RescoreWindow)
		assert.Equal(t, 168*time.Hour, cfg.Retention.MaxAge)
		assert.Equal(t, 3.0, cfg.Retention.RankThreshold)
		assert.Equal(t, "interests.yaml", cfg.Profile.SeedPath)
	})

	t.Run("should read overrides from the environment", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "9000")
		t.Setenv("ATTENTIOND_TOKEN", "secret-token")
		t.Setenv("DB_PATH", "/var/lib/attentiond/store.db")
		t.Setenv("CYCLE_INTERVAL", "15m")
		t.Setenv("CYCLE_RUN_IMMEDIATELY", "false")
		t.Setenv("CYCLE_FETCH_RATE_PER_SEC", "0.5")
		t.Setenv("RETENTION_RANK_THRESHOLD", "4.5")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "secret-token", cfg.Server.AuthToken)
		assert.Equal(t, "/var/lib/attentiond/store.db", cfg.Database.Path)
		assert.Equal(t, 15*time.Minute, cfg.Cycle.Interval)
		assert.False(t, cfg.Cycle.RunImmediately)
		assert.Equal(t, 0.5, cfg.Cycle.FetchRatePerSec)
		assert.Equal(t, 4.5, cfg.Retention.RankThreshold)
	})

	t.Run("should reject unparseable values", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "not-a-port")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SERVER_PORT")
	})

	t.Run("should reject an out-of-range port", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "70000")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid server port")
	})

	t.Run("should reject a cycle interval below one minute", func(t *testing.T) {
		t.Setenv("CYCLE_INTERVAL", "5s")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cycle interval too short")
	})

	t.Run("should reject a non-positive fetch rate", func(t *testing.T) {
		t.Setenv("CYCLE_FETCH_RATE_PER_SEC", "0")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fetch rate must be positive")
	})

	t.Run("should reject a non-positive oracle timeout", func(t *testing.T) {
		t.Setenv("ORACLE_TIMEOUT", "-1s")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "oracle timeout must be positive")
	})
}
