package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-me-jwt-secret"

type Config struct {
	Env         string `env:"APP_ENV" env-default:"local"`
	DatabaseURL string `env:"DATABASE_URL" env-default:"file:tutorbook.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"`
	RedisAddr   string `env:"REDIS_ADDR"`

	HTTPServer
	Auth
	Booking
	RateLimit

	ReconcileSchedule string   `env:"RECONCILE_SCHEDULE" env-default:"@hourly"`
	CORSOrigins       []string `env:"CORS_ORIGINS" env-separator:"," env-default:"*"`
}

type HTTPServer struct {
	Address         string        `env:"HTTP_ADDR" env-default:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"15s"`
}

type Auth struct {
	JWTSecret string        `env:"JWT_SECRET" env-default:"change-me-jwt-secret"`
	JWTTTL    time.Duration `env:"JWT_TTL" env-default:"24h"`
}

type Booking struct {
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" env-default:"5s"`
	LockTTL      time.Duration `env:"LOCK_TTL" env-default:"10s"`
}

type RateLimit struct {
	RPS   float64 `env:"RATE_LIMIT_RPS" env-default:"2"`
	Burst int     `env:"RATE_LIMIT_BURST" env-default:"20"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env == "" {
		cfg.Env = "local"
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func validateConfig(cfg *Config) error {
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be > 0")
	}
	if cfg.LockTTL <= 0 {
		return fmt.Errorf("LOCK_TTL must be > 0")
	}
	if cfg.RPS <= 0 || cfg.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be > 0")
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}

	if isProdLike(cfg.Env) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}
