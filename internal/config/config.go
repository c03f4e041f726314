package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabaseURL     string
	DatabasePath    string
	JWTSecret       string
	JWTTTL          time.Duration
	DefaultTimezone string
	StoreTimeout    time.Duration
	RequestTimeout  time.Duration

	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RedisChannelPrefix string

	LogLevel  string
	LogFormat string

	MonitorEnabled  bool
	MonitorInterval time.Duration

	LoginRateLimit int
}

var defaults = map[string]any{
	"port":                 "8080",
	"database_type":        "sqlite",
	"database_url":         "",
	"db_path":              "./carelog.db",
	"jwt_secret":           "",
	"jwt_ttl":              "24h",
	"default_timezone":     "America/Sao_Paulo",
	"store_timeout":        "5s",
	"request_timeout":      "15s",
	"redis_addr":           "",
	"redis_password":       "",
	"redis_db":             0,
	"redis_channel_prefix": "carelog",
	"log_level":            "info",
	"log_format":           "json",
	"monitor_enabled":      false,
	"monitor_interval":     "1m",
	"login_rate_limit":     10,
}

// Load reads configuration from an optional .env file and the environment
func Load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	cfg := &Config{
		ServerPort:         v.GetString("port"),
		DatabaseType:       strings.ToLower(v.GetString("database_type")),
		DatabaseURL:        v.GetString("database_url"),
		DatabasePath:       v.GetString("db_path"),
		JWTSecret:          v.GetString("jwt_secret"),
		JWTTTL:             v.GetDuration("jwt_ttl"),
		DefaultTimezone:    v.GetString("default_timezone"),
		StoreTimeout:       v.GetDuration("store_timeout"),
		RequestTimeout:     v.GetDuration("request_timeout"),
		RedisAddr:          v.GetString("redis_addr"),
		RedisPassword:      v.GetString("redis_password"),
		RedisDB:            v.GetInt("redis_db"),
		RedisChannelPrefix: v.GetString("redis_channel_prefix"),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          v.GetString("log_format"),
		MonitorEnabled:     v.GetBool("monitor_enabled"),
		MonitorInterval:    v.GetDuration("monitor_interval"),
		LoginRateLimit:     v.GetInt("login_rate_limit"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no usable default
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.DatabaseType {
	case "sqlite", "sqlite3", "":
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for %s", c.DatabaseType))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_TYPE: %s", c.DatabaseType))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	if c.MonitorEnabled && c.MonitorInterval <= 0 {
		errs = append(errs, errors.New("MONITOR_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}
