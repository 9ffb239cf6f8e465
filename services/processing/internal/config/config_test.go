package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.RawStoreDriver)
	assert.False(t, cfg.RunOnStart)

	h, err := cfg.Horizon()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), h.Start)
	assert.Equal(t, 2, h.Years)
	assert.Equal(t, "2024-06-30", h.Fallback)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("WAREHOUSE_PATH", "/tmp/wh.db")
	t.Setenv("RAW_STORE_DRIVER", "clickhouse")
	t.Setenv("RUN_ON_START", "true")
	t.Setenv("CLEAN_CONCURRENCY", "not-a-number")
	t.Setenv("RUN_TIMEOUT", "90s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/wh.db", cfg.WarehousePath)
	assert.True(t, cfg.RunOnStart)
	assert.Equal(t, 4, cfg.CleanConcurrency)
	assert.Equal(t, 90*time.Second, cfg.RunTimeout)

	opts := cfg.RawStore()
	assert.Equal(t, "clickhouse", opts.Driver)
	assert.Equal(t, "talentinsight", opts.ClickHouse.Database)
}

func TestLoadConfigRejectsFallbackOutsideHorizon(t *testing.T) {
	t.Setenv("DATE_FALLBACK", "2031-01-01")
	_, err := LoadConfig()
	assert.Error(t, err)
}
