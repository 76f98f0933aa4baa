package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	TMDB    TMDBConfig    `mapstructure:"tmdb"`
	Session SessionConfig `mapstructure:"session"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// TMDBConfig holds catalog service configuration.
type TMDBConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	ImageBaseURL string `mapstructure:"image_base_url"`
	Language     string `mapstructure:"language"`
	Timeout      int    `mapstructure:"timeout"` // seconds

	// RateLimit is the sustained number of outbound requests per second.
	// Zero disables client-side limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`

	Breaker BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig configures the circuit breaker in front of the catalog client.
type BreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MinRequests  uint32        `mapstructure:"min_requests"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

// SessionConfig holds interaction session configuration.
type SessionConfig struct {
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	EvictionCron string        `mapstructure:"eviction_cron"`

	// Per client IP limit on session creation; zero disables it.
	CreateRate  float64 `mapstructure:"create_rate"`
	CreateBurst int     `mapstructure:"create_burst"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		TMDB: TMDBConfig{
			BaseURL:      "https://api.themoviedb.org/3",
			ImageBaseURL: "https://image.tmdb.org/t/p",
			Language:     "en-US",
			Timeout:      15,
			RateLimit:    40,
			RateBurst:    20,
			Breaker: BreakerConfig{
				Enabled:      true,
				MaxRequests:  3,
				Interval:     time.Minute,
				Timeout:      30 * time.Second,
				MinRequests:  10,
				FailureRatio: 0.6,
			},
		},
		Session: SessionConfig{
			IdleTimeout:  30 * time.Minute,
			EvictionCron: "*/5 * * * *",
			CreateRate:   1,
			CreateBurst:  10,
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	// .env is optional; real environment variables always win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.cinematch")
	}

	v.SetEnvPrefix("CINEMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.TMDB.APIKey = resolveAPIKey(cfg.TMDB.APIKey)

	return cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("tmdb.base_url", d.TMDB.BaseURL)
	v.SetDefault("tmdb.image_base_url", d.TMDB.ImageBaseURL)
	v.SetDefault("tmdb.language", d.TMDB.Language)
	v.SetDefault("tmdb.timeout", d.TMDB.Timeout)
	v.SetDefault("tmdb.rate_limit", d.TMDB.RateLimit)
	v.SetDefault("tmdb.rate_burst", d.TMDB.RateBurst)
	v.SetDefault("tmdb.breaker.enabled", d.TMDB.Breaker.Enabled)
	v.SetDefault("tmdb.breaker.max_requests", d.TMDB.Breaker.MaxRequests)
	v.SetDefault("tmdb.breaker.interval", d.TMDB.Breaker.Interval)
	v.SetDefault("tmdb.breaker.timeout", d.TMDB.Breaker.Timeout)
	v.SetDefault("tmdb.breaker.min_requests", d.TMDB.Breaker.MinRequests)
	v.SetDefault("tmdb.breaker.failure_ratio", d.TMDB.Breaker.FailureRatio)

	v.SetDefault("session.idle_timeout", d.Session.IdleTimeout)
	v.SetDefault("session.eviction_cron", d.Session.EvictionCron)
	v.SetDefault("session.create_rate", d.Session.CreateRate)
	v.SetDefault("session.create_burst", d.Session.CreateBurst)
}

// resolveAPIKey falls back to the conventional TMDB_API_KEY variable and then
// to the key embedded at build time.
func resolveAPIKey(configured string) string {
	if key := strings.TrimSpace(configured); key != "" {
		return key
	}
	if key := strings.TrimSpace(os.Getenv("TMDB_API_KEY")); key != "" {
		return key
	}
	return EmbeddedTMDBKey
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
