package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
gateway:
  endpoint: https://gw.example.com/v1
  api_key: secret
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2333, cfg.Port)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Contains(t, cfg.DSN, "wisdow_meeting")
	assert.Equal(t, "https://gw.example.com/v1", cfg.Gateway.Endpoint)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gateway.Model)
	assert.Equal(t, 65536, cfg.Gateway.MaxTokens)
	assert.Equal(t, 5*time.Minute, cfg.Gateway.RequestTimeout())
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
port: 8080
env: Production
redis_url: redis.internal:6380
allowed_origins:
  - "app.example.com"
  - "  "
gateway:
  endpoint: https://gw.example.com/
  api_key: secret
  model: gpt-4o
  timeout_seconds: 60
  max_tokens: 4096
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, "redis://redis.internal:6380", cfg.RedisURL)
	assert.Equal(t, []string{"app.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "https://gw.example.com", cfg.Gateway.Endpoint)
	assert.Equal(t, 60*time.Second, cfg.Gateway.RequestTimeout())
	assert.Equal(t, 4096, cfg.Gateway.MaxTokens)
}

func TestLoadRejectsMissingGateway(t *testing.T) {
	_, err := Load(writeConfig(t, "port: 8080\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway.endpoint")

	_, err = Load(writeConfig(t, "gateway:\n  endpoint: https://gw.example.com\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway.api_key")
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(writeConfig(t, `
gateway:
  endpoint: https://gw.example.com
  api_key: secret
no_such_key: true
`))
	assert.Error(t, err)
}
