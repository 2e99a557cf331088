package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replynow20/gemini-zotero/internal/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_API_ENDPOINT", "GEMINI_PROXY_URL", "GEMINI_TIMEOUT",
		"SERVER_PORT", "SERVER_HOST", "HISTORY_PATH", "REDIS_URL", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "gemini-3-flash-preview", cfg.API.Model)
	assert.Equal(t, 1.0, cfg.Generation.Temperature)
	assert.Equal(t, 0.95, cfg.Generation.TopP)
	assert.Equal(t, 40, cfg.Generation.TopK)
	assert.Equal(t, 8192, cfg.Generation.MaxOutputTokens)
	assert.Equal(t, 2*time.Second, cfg.Upload.PollInterval)
	assert.Equal(t, 60*time.Second, cfg.Upload.ProcessingTimeout)
	assert.Equal(t, "gemini-3-pro-image-preview", cfg.Insight.ImageModel)
	assert.Equal(t, "16:9", cfg.Insight.AspectRatio)
	assert.Equal(t, "2K", cfg.Insight.ImageSize)
	assert.False(t, cfg.HasAPIKey())
}

func TestLoadYAMLAndEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  key: from-file
  model: gemini-2.5-pro
  timeout: 90s
generation:
  temperature: 0.4
  top_p: 0.9
  top_k: 20
  max_output_tokens: 4096
upload:
  poll_interval: 500ms
  processing_timeout: 10s
  display_name: paper.pdf
history:
  driver: memory
  max_messages: 10
`), 0o600))

	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.API.Key)
	assert.Equal(t, "gemini-2.5-pro", cfg.API.Model)
	assert.Equal(t, 90*time.Second, cfg.API.Timeout)
	assert.Equal(t, 0.4, cfg.Generation.Temperature)
	assert.Equal(t, 20, cfg.Generation.TopK)
	assert.Equal(t, 500*time.Millisecond, cfg.Upload.PollInterval)
	assert.Equal(t, "paper.pdf", cfg.Upload.DisplayName)
	assert.Equal(t, "memory", cfg.History.Driver)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	// untouched sections keep their defaults
	assert.Equal(t, 8086, cfg.Server.Port)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Unsetenv("GEMINI_API_KEY"))
	require.NoError(t, os.WriteFile(".env", []byte("GEMINI_API_KEY=dotenv-key\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("GEMINI_API_KEY") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", cfg.API.Key)
}

func TestRedisURLSwitchesHistoryDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_URL", "redis://:secret@cache.local:6390/2")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.History.Driver)
	assert.Equal(t, "cache.local:6390", cfg.History.Redis.Addr)
	assert.Equal(t, "secret", cfg.History.Redis.Password)
	assert.Equal(t, 2, cfg.History.Redis.DB)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "bad temperature", mutate: func(c *Config) { c.Generation.Temperature = 3 }},
		{name: "empty model", mutate: func(c *Config) { c.API.Model = "" }},
		{name: "bad proxy scheme", mutate: func(c *Config) { c.API.ProxyURL = "ftp://proxy:21" }},
		{name: "bad history driver", mutate: func(c *Config) { c.History.Driver = "sqlite" }},
		{name: "zero poll interval", mutate: func(c *Config) { c.Upload.PollInterval = 0 }},
		{name: "zero attempts", mutate: func(c *Config) { c.Batch.MaxAttempts = 0 }},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, domain.IsType(err, domain.ErrorTypeConfiguration))
		})
	}

	cfg := DefaultConfig()
	cfg.API.ProxyURL = "socks5://127.0.0.1:1080"
	assert.NoError(t, cfg.Validate())
}
