package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, ":5000", cfg.Server.Address)
	assert.Equal(t, 5, cfg.Presence.UIDLength)
	assert.Equal(t, int64(5<<30), cfg.Relay.MaxFileSizeBytes)
}

func TestLoad(t *testing.T) {
	t.Run("valid file overrides defaults", func(t *testing.T) {
		path := writeConfig(t, `
server:
  address: ":9000"
  read_timeout: 5s
  write_timeout: 5s
  shutdown_timeout: 5s
presence:
  uid_length: 6
logging:
  level: debug
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.Server.Address)
		assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 6, cfg.Presence.UIDLength)
		assert.Equal(t, "debug", cfg.Logging.Level)
		// Untouched sections keep their defaults.
		assert.Equal(t, 30*time.Second, cfg.Signal.PingInterval)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load("/does/not/exist.yaml")
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "server: [not a map")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		path := writeConfig(t, `
presence:
  uid_length: 99
`)
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Run("empty address", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Server.Address = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("pong timeout must exceed ping interval", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Signal.PongTimeout = cfg.Signal.PingInterval
		assert.Error(t, cfg.Validate())
	})

	t.Run("redis address required when enabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Redis.Enabled = true
		cfg.Redis.Address = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("rate limits must be positive when enabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RateLimiting.Enabled = true
		cfg.RateLimiting.HTTP.RequestsPerSecond = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("tracing sample rate bounded", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tracing.Enabled = true
		cfg.Tracing.SampleRate = 1.5
		assert.Error(t, cfg.Validate())
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
