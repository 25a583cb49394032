package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 120*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Models.Vision)
	assert.Equal(t, "whisper-1", cfg.OpenAI.Models.Transcribe)
	assert.Equal(t, 15*time.Minute, cfg.Handoff.TTL)
	assert.Equal(t, "https://world.openfoodfacts.org", cfg.OFF.BaseURL)
	assert.False(t, cfg.Image.GenerateForScan)
	assert.Empty(t, cfg.OpenAI.APIKey)
	require.NoError(t, validateConfig(cfg))
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-1234567890")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sk-test-1234567890", cfg.OpenAI.APIKey)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
}

func TestLoadConfig_MissingKeyIsNotFatal(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.OpenAI.APIKey)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server port"},
		{"bad cache size", func(c *Config) { c.Cache.MaxSize = 0 }, "cache max size"},
		{"cache disabled ignores size", func(c *Config) { c.Cache.Enabled = false; c.Cache.MaxSize = 0 }, ""},
		{"bad handoff ttl", func(c *Config) { c.Handoff.TTL = 0 }, "handoff ttl"},
		{"redis without addr", func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }, "redis addr"},
		{"s3 without bucket", func(c *Config) { c.Storage.S3.Enabled = true; c.Storage.S3.Bucket = "" }, "s3 bucket"},
		{"bad rate limit", func(c *Config) { c.RateLimit.Requests = 0 }, "rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", MaskAPIKey("short"))
	assert.Equal(t, "sk-a...wxyz", MaskAPIKey("sk-abcdefghijklmnopqrstuvwxyz"))
}
