package app

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/odyssey-erp/admindash/internal/testing/guard"
)

func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	unsetenv(t, "DATA_SOURCE", "PG_DSN", "APP_ADDR", "LIST_CACHE_TTL", "LIST_DEFAULT_PAGE_SIZE", "RATE_LIMIT_PER_MINUTE", "APP_ENV")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DataSourceEmbedded, cfg.DataSource)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, time.Minute, cfg.ListCacheTTL)
	assert.Equal(t, 25, cfg.ListDefaultPageSize)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigPostgresNeedsDSN(t *testing.T) {
	t.Setenv("DATA_SOURCE", "postgres")
	t.Setenv("PG_DSN", "")

	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("PG_DSN", "postgres://admindash@localhost/admindash")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DataSourcePostgres, cfg.DataSource)
}

func TestConfigValidate(t *testing.T) {
	cases := map[string]Config{
		"unknown source": {DataSource: "sqlite", ListDefaultPageSize: 10},
		"zero page size": {DataSource: DataSourceEmbedded},
		"negative limit": {DataSource: DataSourceEmbedded, ListDefaultPageSize: 10, RateLimitPerMinute: -1},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestInTestModeUnderGuard(t *testing.T) {
	RefreshTestMode()
	assert.True(t, InTestMode())
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&Config{LogFormat: "json"}, &buf).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Contains(t, line, "source")

	buf.Reset()
	newLogger(&Config{LogFormat: "pretty"}, &buf).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
