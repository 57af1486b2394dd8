package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	AppEnv       string        `env:"APP_ENV" envDefault:"development"`
	Addr         string        `env:"ADDR" envDefault:":8080"`
	DatabaseURL  string        `env:"DATABASE_URL" envDefault:"sqlite://catalog.db"`
	RedisURL     string        `env:"REDIS_URL"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`
	BcryptCost   int           `env:"BCRYPT_COST" envDefault:"10"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads the environment, first merging the given .env files (or ./.env)
// unless APP_ENV is production. Missing .env files are not an error.
func Load(paths ...string) (Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load(paths...)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return Config{}, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d",
			bcrypt.MinCost, bcrypt.MaxCost, cfg.BcryptCost)
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// NewLogger returns a text logger in development and a JSON one elsewhere.
func NewLogger(cfg Config) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.AppEnv != "development" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	logger.SetLevel(level)
	return logger, nil
}
