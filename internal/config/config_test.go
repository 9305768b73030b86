package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./cache", cfg.Cache.Dir)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "serp", cfg.Search.Provider)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 5, cfg.Fetch.Concurrency)
	assert.Equal(t, "keywords", cfg.Classify.Backend)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BRANDWATCH_CACHE_TTL", "30m")
	t.Setenv("BRANDWATCH_SEARCH_PROVIDER", "rss")
	t.Setenv("BRANDWATCH_FETCH_CONCURRENCY", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "rss", cfg.Search.Provider)
	assert.Equal(t, 8, cfg.Fetch.Concurrency)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("BRANDWATCH_SEARCH_PROVIDER", "bing")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadZeroshotRequiresEndpoint(t *testing.T) {
	t.Setenv("BRANDWATCH_CLASSIFY_BACKEND", "zeroshot")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("BRANDWATCH_CLASSIFY_ENDPOINT", "http://ml.internal/classify")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "zeroshot", cfg.Classify.Backend)
}

func TestNewLogger(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)

	cfg.Log.Level = "nope"
	_, err = cfg.NewLogger()
	assert.Error(t, err)
}
