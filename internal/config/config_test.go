package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Fills defaults for missing keys", func(t *testing.T) {
		// Given: a config file that only sets the log level
		path := writeConfig(t, "log-level: debug\n")

		// When: it is loaded
		conf, err := Load(path)

		// Then: every other key has its default
		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, "7777", conf.SocketPort)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
		assert.Equal(t, time.Second, conf.Session.ThinkDelay)
		assert.Equal(t, time.Hour, conf.Session.SnapshotTTL)
		assert.Equal(t, 5, conf.Session.RandomPlayOdds)
		assert.InDelta(t, 1.0, conf.Layout.CellSize, 1e-9)
	})

	t.Run("Reads nested sections", func(t *testing.T) {
		path := writeConfig(t, `
redis:
  host: cache
  port: "6380"
session:
  think-delay: 250ms
  random-play-odds: 3
layout:
  cell-size: 2.5
`)

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "cache:6380", conf.Redis.GetRedisAddr())
		assert.Equal(t, 250*time.Millisecond, conf.Session.ThinkDelay)
		assert.Equal(t, 3, conf.Session.RandomPlayOdds)
		assert.InDelta(t, 2.5, conf.Layout.CellSize, 1e-9)
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		path := writeConfig(t, "http-port: \"8000\"\n")
		t.Setenv("HTTP_PORT", "8181")

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "8181", conf.HTTPPort)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))

		require.Error(t, err)
		assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "nope.yml")) })
	})
}

func TestRedis_GetRedisAddr(t *testing.T) {
	assert.Equal(t, "", (&Redis{Host: "", Port: "6379"}).GetRedisAddr())
}
