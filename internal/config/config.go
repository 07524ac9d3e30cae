package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// Forwarding transports.
const (
	ForwardWebhook = "webhook"
	ForwardQueue   = "queue"
)

type Config struct {
	HTTPAddr          string `env:"HTTP_ADDR" envDefault:":8000"`
	DatabaseURL       string `env:"DATABASE_URL"`
	RedisAddr         string `env:"REDIS_ADDR"`
	APIToken          string `env:"API_TOKEN"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	CatalogPath       string `env:"CATALOG_PATH"`
	ImagesDir         string `env:"IMAGES_DIR" envDefault:"images"`
	WebhookURL        string `env:"WEBHOOK_URL"`
	ForwardMode       string `env:"FORWARD_MODE" envDefault:"webhook"`
	ExportBackends    string `env:"EXPORT_BACKENDS" envDefault:"local"`
	WorkerConcurrency int    `env:"WORKER_CONCURRENCY" envDefault:"5"`

	S3 S3Config
}

// S3Config points at an S3 compatible store (MinIO in development). An
// empty endpoint disables it.
type S3Config struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	Bucket    string `env:"MINIO_BUCKET" envDefault:"survey"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Region    string `env:"MINIO_REGION" envDefault:"us-east-1"`
}

func (c S3Config) Enabled() bool {
	return c.Endpoint != ""
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the service configuration.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	switch cfg.ForwardMode {
	case ForwardWebhook, ForwardQueue:
	default:
		return cfg, fmt.Errorf("FORWARD_MODE must be %q or %q, got %q", ForwardWebhook, ForwardQueue, cfg.ForwardMode)
	}
	if cfg.ForwardMode == ForwardQueue && cfg.RedisAddr == "" {
		return cfg, fmt.Errorf("FORWARD_MODE=%s requires REDIS_ADDR", ForwardQueue)
	}
	if cfg.WorkerConcurrency < 1 {
		return cfg, fmt.Errorf("WORKER_CONCURRENCY must be positive, got %d", cfg.WorkerConcurrency)
	}
	return cfg, nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
