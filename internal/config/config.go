// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every setting the binary reads at startup.
type Config struct {
	Env            string        `env:"APP_ENV" envDefault:"development"`
	Port           int           `env:"PORT" envDefault:"3000"`
	DBPath         string        `env:"DB_PATH" envDefault:"eventhub.db"`
	CORSOrigins    []string      `env:"CORS_ORIGIN" envDefault:"http://localhost:5173" envSeparator:","`
	JWTSecret      string        `env:"JWT_SECRET"`
	JWTTTL         time.Duration `env:"JWT_TTL" envDefault:"24h"`
	AuthRateLimit  int           `env:"AUTH_RATE_LIMIT" envDefault:"20"`
	AuthRateWindow time.Duration `env:"AUTH_RATE_WINDOW" envDefault:"1m"`
}

// ParseEnv fills target from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads a .env file when present and parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.CORSOrigins = trimOrigins(cfg.CORSOrigins)
	return cfg, nil
}

func trimOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Production reports whether the binary runs in production mode.
func (c Config) Production() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ValidateServe checks the settings only the HTTP server needs.
func (c Config) ValidateServe() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", c.Port)
	}
	if c.AuthRateLimit < 0 {
		return errors.New("AUTH_RATE_LIMIT must not be negative")
	}
	return nil
}
