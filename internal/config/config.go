package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/arvos-app/arvos-fetch/internal/domain"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	SimulateWeb  bool   `mapstructure:"simulate_web"`
	FixturesDir  string `mapstructure:"fixtures_dir"`
	FixturesFile string `mapstructure:"fixtures_file"`

	PublishersFile     string        `mapstructure:"publishers_file"`
	PoolSize           int           `mapstructure:"pool_size"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`

	CacheType           string        `mapstructure:"cache_type"`
	BBoltPath           string        `mapstructure:"bbolt_path"`
	CacheCapacity       uint64        `mapstructure:"cache_capacity"`
	CacheTTLSeconds     int64         `mapstructure:"cache_ttl_seconds"`
	CacheCleanupSeconds int64         `mapstructure:"cache_cleanup_interval_seconds"`
	CacheTTL            time.Duration `mapstructure:"-"`
	CacheCleanup        time.Duration `mapstructure:"-"`

	SessionID    string  `mapstructure:"session_id"`
	Latitude     float64 `mapstructure:"latitude"`
	Longitude    float64 `mapstructure:"longitude"`
	Azimuth      float64 `mapstructure:"azimuth"`
	IsAuthor     bool    `mapstructure:"is_author"`
	Version      int     `mapstructure:"version"`
	AuthorKey    string  `mapstructure:"author_key"`
	DeveloperKey string  `mapstructure:"developer_key"`
	AugmentsURL  string  `mapstructure:"augments_url"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "arvos-fetch")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("simulate_web", false)
	v.SetDefault("fixtures_dir", "")
	v.SetDefault("fixtures_file", "")
	v.SetDefault("publishers_file", "")
	v.SetDefault("pool_size", 4)
	v.SetDefault("http_timeout_seconds", 30)
	v.SetDefault("cache_type", "memory")
	v.SetDefault("bbolt_path", "./data/images.db")
	v.SetDefault("cache_capacity", 256)
	v.SetDefault("cache_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("cache_cleanup_interval_seconds", int64((time.Hour)/time.Second))
	v.SetDefault("session_id", "")
	v.SetDefault("latitude", 0.0)
	v.SetDefault("longitude", 0.0)
	v.SetDefault("azimuth", 0.0)
	v.SetDefault("is_author", false)
	v.SetDefault("version", 1)
	v.SetDefault("author_key", "")
	v.SetDefault("developer_key", "")
	v.SetDefault("augments_url", "http://www.mission-base.com/arvos/augments.php")
}

// normalize validates numeric settings and derives durations.
func (c *Config) normalize() error {
	if c.PoolSize <= 0 {
		return fmt.Errorf("invalid pool_size (must be positive)")
	}
	if c.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	c.HTTPTimeout = time.Duration(c.HTTPTimeoutSeconds) * time.Second

	if c.CacheTTLSeconds <= 0 {
		return fmt.Errorf("invalid cache_ttl_seconds (must be positive seconds)")
	}
	if c.CacheCleanupSeconds <= 0 {
		return fmt.Errorf("invalid cache_cleanup_interval_seconds (must be positive seconds)")
	}
	c.CacheTTL = time.Duration(c.CacheTTLSeconds) * time.Second
	c.CacheCleanup = time.Duration(c.CacheCleanupSeconds) * time.Second
	return nil
}

// Session builds the request session state from the configured identity and location.
func (c *Config) Session() domain.Session {
	return domain.Session{
		SessionID:        c.SessionID,
		Latitude:         c.Latitude,
		Longitude:        c.Longitude,
		CorrectedAzimuth: c.Azimuth,
		IsAuthor:         c.IsAuthor,
		Version:          c.Version,
		AuthorKey:        c.AuthorKey,
		DeveloperKey:     c.DeveloperKey,
		AugmentsURL:      c.AugmentsURL,
	}
}
