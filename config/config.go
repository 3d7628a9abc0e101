package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Cache     CacheConfig     `json:"cache"`
	Fetch     FetchConfig     `json:"fetch"`
	Image     ImageConfig     `json:"image"`
	RateLimit RateLimitConfig `json:"rate_limit"`
}

type ServerConfig struct {
	Port         int           `json:"port" env:"SERVER_PORT" default:"9300"`
	ReadTimeout  time.Duration `json:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `json:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout  time.Duration `json:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" default:"120s"`
}

type CacheConfig struct {
	// Memory tier (transcoded variants)
	MemoryMaxEntries int           `json:"memory_max_entries" env:"CACHE_MEMORY_MAX_ENTRIES" default:"200"`
	MemoryTTL        time.Duration `json:"memory_ttl" env:"CACHE_MEMORY_TTL" default:"1h"`

	// Disk tier (raw origin bytes)
	DiskDir      string        `json:"disk_dir" env:"CACHE_DISK_DIR" default:"./image-cache"`
	DiskMaxAge   time.Duration `json:"disk_max_age" env:"CACHE_DISK_MAX_AGE" default:"168h"`
	DiskMaxBytes int64         `json:"disk_max_bytes" env:"CACHE_DISK_MAX_BYTES" default:"0"` // 0 = unbounded

	// Janitor
	JanitorInterval time.Duration `json:"janitor_interval" env:"CACHE_JANITOR_INTERVAL" default:"10m"`
	JanitorTimeout  time.Duration `json:"janitor_timeout" env:"CACHE_JANITOR_TIMEOUT" default:"1m"`
}

type FetchConfig struct {
	Timeout        time.Duration `json:"timeout" env:"FETCH_TIMEOUT" default:"8s"`
	MaxSize        int           `json:"max_size" env:"FETCH_MAX_SIZE" default:"10485760"`
	UserAgent      string        `json:"user_agent" env:"FETCH_USER_AGENT" default:"media-proxy/1.0 (image cache)"`
	MaxRetries     int           `json:"max_retries" env:"FETCH_MAX_RETRIES" default:"2"`
	RetryBackoff   time.Duration `json:"retry_backoff" env:"FETCH_RETRY_BACKOFF" default:"250ms"`
	AllowedDomains []string      `json:"allowed_domains" env:"FETCH_ALLOWED_DOMAINS" default:"images.unsplash.com,api.pexels.com,images.pexels.com,cdn.pixabay.com"`
}

type ImageConfig struct {
	JPEGQuality int `json:"jpeg_quality" env:"IMAGE_JPEG_QUALITY" default:"80"`
}

type RateLimitConfig struct {
	HostInterval time.Duration `json:"host_interval" env:"RATE_LIMIT_HOST_INTERVAL" default:"200ms"`
	HostBurst    int           `json:"host_burst" env:"RATE_LIMIT_HOST_BURST" default:"5"`
}

// Load reads configuration from a .env file (when present) and the
// environment, then validates it.
func Load() (*Config, error) {
	// Missing .env is fine; env vars alone are a valid configuration.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := loadFromEnvironment(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks ranges that the reflection loader cannot express.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	if c.Cache.MemoryMaxEntries < 1 {
		return fmt.Errorf("memory cache must hold at least one entry")
	}
	if c.Cache.MemoryTTL <= 0 {
		return fmt.Errorf("memory cache TTL must be positive")
	}
	if c.Cache.DiskDir == "" {
		return fmt.Errorf("disk cache directory is required")
	}
	if c.Cache.DiskMaxAge <= 0 {
		return fmt.Errorf("disk cache max age must be positive")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.Fetch.MaxSize < 1024 {
		return fmt.Errorf("fetch max size too small: %d", c.Fetch.MaxSize)
	}
	if c.Image.JPEGQuality < 1 || c.Image.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality out of range: %d", c.Image.JPEGQuality)
	}
	if len(c.Fetch.AllowedDomains) == 0 {
		return fmt.Errorf("at least one allowed domain is required")
	}
	return nil
}
