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

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
	Matching  MatchingConfig  `mapstructure:"matching"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig selects and configures the inventory store
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // "memory" or "postgres"
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
	Burst int `mapstructure:"burst"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// MatchingConfig points at the match configuration and tunes the matcher
type MatchingConfig struct {
	ConfigFile   string `mapstructure:"config_file"`
	StringMetric string `mapstructure:"string_metric"`
	CandidateCap int    `mapstructure:"candidate_cap"`
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/kitchenledger/")

	// KITCHENLEDGER_SERVER_PORT overrides server.port
	v.SetEnvPrefix("KITCHENLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads path into the environment without overriding variables already set
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "15m")

	v.SetDefault("ratelimit.per_ip", 120)
	v.SetDefault("ratelimit.burst", 20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("matching.config_file", "")
	v.SetDefault("matching.string_metric", "levenshtein")
	v.SetDefault("matching.candidate_cap", 50)
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Database.Driver {
	case "memory":
	case "postgres":
		if config.Database.URL == "" {
			return fmt.Errorf("database URL is required when driver is 'postgres' (set KITCHENLEDGER_DATABASE_URL)")
		}
	default:
		return fmt.Errorf("database driver must be 'memory' or 'postgres', got: %s", config.Database.Driver)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}
	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}
	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %s", config.Cache.TTL)
	}

	if config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("ratelimit.per_ip must be positive, got: %d", config.RateLimit.PerIP)
	}
	if config.RateLimit.Burst <= 0 {
		return fmt.Errorf("ratelimit.burst must be positive, got: %d", config.RateLimit.Burst)
	}

	switch strings.ToLower(config.Matching.StringMetric) {
	case "trigram", "levenshtein":
	default:
		return fmt.Errorf("matching.string_metric must be 'trigram' or 'levenshtein', got: %s", config.Matching.StringMetric)
	}
	if config.Matching.CandidateCap < 1 || config.Matching.CandidateCap > 50 {
		return fmt.Errorf("matching.candidate_cap must be between 1 and 50, got: %d", config.Matching.CandidateCap)
	}

	return nil
}
