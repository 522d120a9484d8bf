package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env         string      `yaml:"env" env:"ENV" env-default:"local"`
	StoragePath string      `yaml:"storage_path" env:"STORAGE_PATH" env-default:"./storage/schedule.db"`
	Timezone    string      `yaml:"timezone" env:"TIMEZONE" env-default:"Local"`
	Log         Log         `yaml:"log"`
	Server      Server      `yaml:"server"`
	Auth        Auth        `yaml:"auth"`
	RateLimit   RateLimit   `yaml:"rate_limit"`
	CORS        CORS        `yaml:"cors"`
	Maintenance Maintenance `yaml:"maintenance"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

type Server struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type Auth struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	Issuer    string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"schedule-tracker"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"JWT_TOKEN_TTL" env-default:"720h"`
}

type RateLimit struct {
	Disabled bool          `yaml:"disabled" env:"RATE_LIMIT_DISABLED"`
	RPS      float64       `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"10"`
	Burst    int           `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"20"`
	IdleTTL  time.Duration `yaml:"idle_ttl" env:"RATE_LIMIT_IDLE_TTL" env-default:"10m"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:","`
}

type Maintenance struct {
	BatchSize int `yaml:"batch_size" env:"MAINTENANCE_BATCH_SIZE" env-default:"500"`
}

// LoadConfig reads .env (if any), then the YAML file at path, then the
// environment. A missing YAML file falls back to environment only.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from env: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" && c.Env != "local" {
		return fmt.Errorf("auth.jwt_secret is required in %s", c.Env)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if !c.RateLimit.Disabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate_limit.rps and rate_limit.burst must be positive")
	}
	if c.Maintenance.BatchSize <= 0 {
		return fmt.Errorf("maintenance.batch_size must be positive")
	}
	return nil
}

// Location resolves Timezone, the wall clock all dates are interpreted in.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Secret returns the signing secret. Local runs without one get a fixed
// development secret.
func (c *Config) Secret() []byte {
	if c.Auth.JWTSecret == "" {
		return []byte("local-development-secret")
	}
	return []byte(c.Auth.JWTSecret)
}
