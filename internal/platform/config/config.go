package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const (
	BlobBackendLocal = "local"
	BlobBackendGCS   = "gcs"
)

type Config struct {
	AppEnv        string        `env:"APP_ENV" default:"development"`
	Port          string        `env:"PORT" default:"8080"`
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" default:"168h"` // 7 days
	LogLevel      string        `env:"LOG_LEVEL" default:"info"`
	LogFormat     string        `env:"LOG_FORMAT" default:"text"`

	// Optional: when set, sessions are stored in Redis instead of the cookie.
	RedisURL string `env:"REDIS_URL"`

	BlobBackend   string `env:"BLOB_BACKEND" default:"local"`
	UploadDir     string `env:"UPLOAD_DIR" default:"uploads"`
	GCSBucketName string `env:"GCS_BUCKET_NAME"`
	GCSPublicHost string `env:"GCS_PUBLIC_HOST" default:"storage.googleapis.com"`

	UploadRateLimit float64 `env:"UPLOAD_RATE_LIMIT" default:"0.2"` // requests per second per IP
	UploadRateBurst int     `env:"UPLOAD_RATE_BURST" default:"5"`
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
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

	if cfg.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.SessionSecret = secret
		slog.Warn("SESSION_SECRET not set, using a temporary key; sessions will not survive restarts")
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.IsProduction() && cfg.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required in production")
	}
	if cfg.SessionSecret != "" && len(cfg.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 characters")
	}
	if cfg.SessionMaxAge <= 0 {
		return errors.New("SESSION_MAX_AGE must be positive")
	}

	switch cfg.BlobBackend {
	case BlobBackendLocal:
		if cfg.UploadDir == "" {
			return errors.New("UPLOAD_DIR is required when BLOB_BACKEND is local")
		}
	case BlobBackendGCS:
		if cfg.GCSBucketName == "" {
			return errors.New("GCS_BUCKET_NAME is required when BLOB_BACKEND is gcs")
		}
	default:
		return fmt.Errorf("BLOB_BACKEND must be %q or %q, got %q", BlobBackendLocal, BlobBackendGCS, cfg.BlobBackend)
	}

	if cfg.UploadRateLimit <= 0 {
		return errors.New("UPLOAD_RATE_LIMIT must be positive")
	}
	if cfg.UploadRateBurst < 1 {
		return errors.New("UPLOAD_RATE_BURST must be at least 1")
	}

	return nil
}

func randomSecret() (string, error) {
	b := securecookie.GenerateRandomKey(32)
	if b == nil {
		return "", errors.New("failed to generate session secret")
	}
	return hex.EncodeToString(b), nil
}
