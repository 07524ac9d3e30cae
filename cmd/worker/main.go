package main

import (
	"go.uber.org/zap"

	"codesurvey/internal/config"
	"codesurvey/internal/export"
	"codesurvey/internal/logging"
	"codesurvey/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("config: %v", err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		config.Exitf("logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.RedisAddr == "" || cfg.WebhookURL == "" {
		config.Exitf("worker needs REDIS_ADDR and WEBHOOK_URL")
	}
	w := &worker.Server{Webhook: &export.Webhook{URL: cfg.WebhookURL}, Log: log}
	log.Info("worker starting", zap.String("redis", cfg.RedisAddr), zap.Int("concurrency", cfg.WorkerConcurrency))
	if err := worker.Run(cfg.RedisAddr, cfg.WorkerConcurrency, w); err != nil {
		log.Fatal("worker stopped", zap.Error(err))
	}
}
