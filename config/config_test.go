package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9300, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, 200, cfg.Cache.MemoryMaxEntries)
	assert.Equal(t, time.Hour, cfg.Cache.MemoryTTL)
	assert.Equal(t, "./image-cache", cfg.Cache.DiskDir)
	assert.Equal(t, 168*time.Hour, cfg.Cache.DiskMaxAge)
	assert.Equal(t, int64(0), cfg.Cache.DiskMaxBytes)
	assert.Equal(t, 10*time.Minute, cfg.Cache.JanitorInterval)

	assert.Equal(t, 8*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 10485760, cfg.Fetch.MaxSize)
	assert.Equal(t, 2, cfg.Fetch.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Fetch.RetryBackoff)
	assert.Equal(t, []string{
		"images.unsplash.com",
		"api.pexels.com",
		"images.pexels.com",
		"cdn.pixabay.com",
	}, cfg.Fetch.AllowedDomains)

	assert.Equal(t, 80, cfg.Image.JPEGQuality)
	assert.Equal(t, 200*time.Millisecond, cfg.RateLimit.HostInterval)
	assert.Equal(t, 5, cfg.RateLimit.HostBurst)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("CACHE_MEMORY_MAX_ENTRIES", "50")
	t.Setenv("CACHE_MEMORY_TTL", "30m")
	t.Setenv("CACHE_DISK_MAX_BYTES", "1048576")
	t.Setenv("FETCH_ALLOWED_DOMAINS", "static.example.org, media.example.net")
	t.Setenv("IMAGE_JPEG_QUALITY", "65")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 50, cfg.Cache.MemoryMaxEntries)
	assert.Equal(t, 30*time.Minute, cfg.Cache.MemoryTTL)
	assert.Equal(t, int64(1048576), cfg.Cache.DiskMaxBytes)
	assert.Equal(t, []string{"static.example.org", "media.example.net"}, cfg.Fetch.AllowedDomains)
	assert.Equal(t, 65, cfg.Image.JPEGQuality)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("CACHE_MEMORY_TTL", "not-a-duration")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too low", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"zero memory entries", func(c *Config) { c.Cache.MemoryMaxEntries = 0 }},
		{"negative ttl", func(c *Config) { c.Cache.MemoryTTL = -time.Minute }},
		{"empty disk dir", func(c *Config) { c.Cache.DiskDir = "" }},
		{"zero disk max age", func(c *Config) { c.Cache.DiskMaxAge = 0 }},
		{"zero fetch timeout", func(c *Config) { c.Fetch.Timeout = 0 }},
		{"tiny fetch max size", func(c *Config) { c.Fetch.MaxSize = 100 }},
		{"quality too high", func(c *Config) { c.Image.JPEGQuality = 150 }},
		{"quality zero", func(c *Config) { c.Image.JPEGQuality = 0 }},
		{"no allowed domains", func(c *Config) { c.Fetch.AllowedDomains = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
