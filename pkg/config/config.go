package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Backend modes.
const (
	BackendRemote = "remote"
	BackendMemory = "memory"
)

var Empty = new(Config)

type Config struct {
	AppEnv       string `envconfig:"APP_ENV" default:"local"`
	Port         int    `envconfig:"PORT" default:"8080"`
	SentryDSN    string `envconfig:"SENTRY_DSN"`
	AllowOrigins string `envconfig:"ALLOW_ORIGINS"`

	Log struct {
		Level string `envconfig:"LOG_LEVEL" default:"info"`
		File  string `envconfig:"LOG_FILE"`
	}
	TMDB struct {
		APIKey       string        `envconfig:"TMDB_API_KEY"`
		BaseURL      string        `envconfig:"TMDB_BASE_URL" default:"https://api.themoviedb.org/3"`
		ImageBaseURL string        `envconfig:"TMDB_IMAGE_BASE_URL" default:"https://image.tmdb.org/t/p/w500"`
		Language     string        `envconfig:"TMDB_LANGUAGE" default:"es-ES"`
		Timeout      time.Duration `envconfig:"TMDB_TIMEOUT" default:"10s"`
	}
	Backend struct {
		Mode              string        `envconfig:"BACKEND_MODE" default:"remote"`
		BaseURL           string        `envconfig:"API_BASE_URL" default:"http://localhost:8000"`
		PublicURL         string        `envconfig:"NEXT_PUBLIC_API_URL"`
		Timeout           time.Duration `envconfig:"API_TIMEOUT" default:"10s"`
		ReportUnavailable bool          `envconfig:"BACKEND_REPORT_UNAVAILABLE" default:"true"`
	}
}

func LoadConfig() (*Config, error) {
	// load default .env file, ignore the error
	_ = godotenv.Load()

	cfg := new(Config)
	err := envconfig.Process("", cfg)
	if err != nil {
		return nil, fmt.Errorf("load config error: %v", err)
	}

	switch cfg.Backend.Mode {
	case BackendRemote, BackendMemory:
	default:
		return nil, fmt.Errorf("load config error: unknown backend mode %q", cfg.Backend.Mode)
	}

	if cfg.Backend.PublicURL == "" {
		cfg.Backend.PublicURL = cfg.Backend.BaseURL
	}

	return cfg, nil
}

// IsLocal reports whether the service runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.AppEnv == "" || c.AppEnv == "local"
}
