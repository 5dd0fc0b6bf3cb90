// Package config reads server settings from the environment (and an optional
// .env file) through viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Enabled reports whether outgoing mail is configured at all.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type Config struct {
	Port            string
	DBDriver        string
	DBURL           string
	SecretKey       string
	SessionLifetime time.Duration
	MediaRoot       string
	MaxUploadBytes  int64
	CacheBackend    string
	CacheTTL        time.Duration
	CacheSize       int
	RedisURL        string
	SMTP            SMTPConfig
	BaseURL         string
	LogLevel        string
	LogFormat       string
	WriteRateLimit  float64
	WriteRateBurst  int
}

func defaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_URL", "")
	v.SetDefault("SECRET_KEY", "")
	v.SetDefault("SESSION_HOURS", 24*14)
	v.SetDefault("MEDIA_ROOT", "uploads")
	v.SetDefault("MAX_UPLOAD_MB", 10)
	v.SetDefault("CACHE_BACKEND", "memory")
	v.SetDefault("CACHE_TTL", "20s")
	v.SetDefault("CACHE_SIZE", 256)
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("SMTP_FROM", "")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("WRITE_RATE_LIMIT", 2.0)
	v.SetDefault("WRITE_RATE_BURST", 10)
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file loaded")
	}

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	cfg := Config{
		Port:            v.GetString("SERVER_PORT"),
		DBDriver:        strings.ToLower(v.GetString("DB_DRIVER")),
		DBURL:           v.GetString("DB_URL"),
		SecretKey:       v.GetString("SECRET_KEY"),
		SessionLifetime: time.Duration(v.GetInt("SESSION_HOURS")) * time.Hour,
		MediaRoot:       v.GetString("MEDIA_ROOT"),
		MaxUploadBytes:  v.GetInt64("MAX_UPLOAD_MB") << 20,
		CacheBackend:    strings.ToLower(v.GetString("CACHE_BACKEND")),
		CacheTTL:        v.GetDuration("CACHE_TTL"),
		CacheSize:       v.GetInt("CACHE_SIZE"),
		RedisURL:        v.GetString("REDIS_URL"),
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASS"),
			From:     v.GetString("SMTP_FROM"),
		},
		BaseURL:        strings.TrimRight(v.GetString("BASE_URL"), "/"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		WriteRateLimit: v.GetFloat64("WRITE_RATE_LIMIT"),
		WriteRateBurst: v.GetInt("WRITE_RATE_BURST"),
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.User
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver))
	}
	if c.DBURL == "" {
		errs = append(errs, errors.New("DB_URL must be set"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY must be set"))
	}
	switch c.CacheBackend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND must be memory or redis, got %q", c.CacheBackend))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, errors.New("CACHE_TTL must be positive"))
	}
	if c.SessionLifetime <= 0 {
		errs = append(errs, errors.New("SESSION_HOURS must be positive"))
	}
	return errors.Join(errs...)
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
