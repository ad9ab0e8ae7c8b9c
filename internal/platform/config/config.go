package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const minSessionSecretLen = 32

// Token store backends selectable through TOKEN_STORE.
const (
	TokenStoreCookie = "cookie"
	TokenStoreMemory = "memory"
	TokenStoreRedis  = "redis"
)

type Config struct {
	AppEnv        string `env:"APP_ENV" default:"development"`
	Port          string `env:"PORT" default:"8080"`
	APIBaseURL    string `env:"API_BASE_URL" default:"http://localhost:8000"`
	SessionSecret string `env:"SESSION_SECRET"`
	RedisURL      string `env:"REDIS_URL"`
	TokenStore    string `env:"TOKEN_STORE"` // empty = redis when REDIS_URL is set, cookie otherwise
	LogLevel      string `env:"LOG_LEVEL" default:"info"`
	LogFormat     string `env:"LOG_FORMAT" default:"text"`

	APITimeout        time.Duration `env:"API_TIMEOUT" default:"0s"` // 0 = no timeout
	APIBreakerEnabled bool          `env:"API_BREAKER_ENABLED" default:"false"`

	ActionRateLimit float64 `env:"ACTION_RATE_LIMIT" default:"5"`
	ActionRateBurst int     `env:"ACTION_RATE_BURST" default:"10"`

	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" default:"168h"` // 7 days
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if len(cfg.SessionSecret) < minSessionSecretLen {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters", minSessionSecretLen)
	}

	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q", cfg.APIBaseURL)
	}

	if cfg.APITimeout < 0 {
		return errors.New("API_TIMEOUT must not be negative")
	}
	if cfg.ActionRateLimit <= 0 {
		return errors.New("ACTION_RATE_LIMIT must be positive")
	}
	if cfg.ActionRateBurst < 1 {
		return errors.New("ACTION_RATE_BURST must be at least 1")
	}

	switch cfg.TokenStore {
	case "":
		cfg.TokenStore = TokenStoreCookie
		if cfg.RedisURL != "" {
			cfg.TokenStore = TokenStoreRedis
		}
	case TokenStoreCookie, TokenStoreMemory:
	case TokenStoreRedis:
		if cfg.RedisURL == "" {
			return errors.New("TOKEN_STORE=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("TOKEN_STORE must be one of cookie, memory, redis, got %q", cfg.TokenStore)
	}

	return nil
}
