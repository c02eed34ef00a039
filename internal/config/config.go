// Package config loads notekeeper settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the top-level configuration container.
type Config struct {
	// Address is the TCP address the HTTP server listens on.
	Address string `env:"ADDRESS" envDefault:":7521"`

	Log     Log     `envPrefix:"LOG_"`
	Storage Storage `envPrefix:"STORAGE_"`
	Mongo   Mongo   `envPrefix:"MONGODB_"`
	Auth    Auth    `envPrefix:"AUTH_"`
	Server  Server  `envPrefix:"SERVER_"`

	RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
}

type Log struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
	// File, when set, receives a rotated copy of the log stream.
	File string `env:"FILE"`
}

type Storage struct {
	// Backend is one of memory, file, sqlite or mongo.
	Backend string `env:"BACKEND" envDefault:"memory"`
	// Path is the YAML document (file) or database file (sqlite).
	Path string `env:"PATH" envDefault:"data/notes"`
}

type Mongo struct {
	URI      string `env:"URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"notekeeper"`
}

type Auth struct {
	TokenSignKey  string        `env:"TOKEN_SIGN_KEY"`
	TokenIssuer   string        `env:"TOKEN_ISSUER" envDefault:"notekeeper"`
	TokenDuration time.Duration `env:"TOKEN_DURATION" envDefault:"24h"`
}

type Server struct {
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// RateLimit bounds requests per principal. RPS of zero disables limiting.
type RateLimit struct {
	RPS   float64 `env:"RPS" envDefault:"10"`
	Burst int     `env:"BURST" envDefault:"20"`
}

// Load reads the process environment.
func Load() (*Config, error) {
	return LoadFrom(envMap(os.Environ()))
}

// LoadFrom reads configuration from environ instead of the process
// environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("error getting env configs: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that env tags cannot express.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendSQLite:
		if c.Storage.Backend != BackendMemory && strings.TrimSpace(c.Storage.Path) == "" {
			return fmt.Errorf("%w: STORAGE_PATH is required for the %s backend", ErrInvalidConfig, c.Storage.Backend)
		}
	case BackendMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("%w: MONGODB_URI is required for the mongo backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}

	if c.Auth.TokenSignKey == "" {
		return fmt.Errorf("%w: AUTH_TOKEN_SIGN_KEY is required", ErrInvalidConfig)
	}
	if c.Auth.TokenDuration <= 0 {
		return fmt.Errorf("%w: AUTH_TOKEN_DURATION must be positive", ErrInvalidConfig)
	}

	if c.RateLimit.RPS < 0 || (c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0) {
		return fmt.Errorf("%w: RATE_LIMIT_BURST must be positive when RATE_LIMIT_RPS is set", ErrInvalidConfig)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

func envMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return m
}
