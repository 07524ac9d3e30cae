package main

import (
	"context"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"codesurvey/internal/catalog"
	"codesurvey/internal/config"
	"codesurvey/internal/db"
	"codesurvey/internal/export"
	httpSrv "codesurvey/internal/http"
	"codesurvey/internal/logging"
	"codesurvey/internal/migrations"
	"codesurvey/internal/storage"
	"codesurvey/internal/survey"
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

	// An invalid catalog cannot produce trial lists; refuse to start.
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		config.Exitf("catalog: %v", err)
	}
	backends, err := export.ParseBackends(cfg.ExportBackends)
	if err != nil {
		config.Exitf("export backends: %v", err)
	}

	ctx := context.Background()

	var store db.Store
	if cfg.DatabaseURL != "" {
		if err := migrations.Run(cfg.DatabaseURL); err != nil {
			config.Exitf("migrations: %v", err)
		}
		dbx, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			config.Exitf("database: %v", err)
		}
		defer dbx.Close()
		store = db.NewPostgresStore(dbx)
	} else {
		log.Warn("DATABASE_URL not set, sessions are kept in memory")
		store = db.NewMemoryStore()
	}

	var images storage.Images = storage.NewDir(cfg.ImagesDir)
	var archive export.Archiver
	if cfg.S3.Enabled() {
		s3c, err := storage.New(ctx, storage.Options{
			Endpoint:  cfg.S3.Endpoint,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Region:    cfg.S3.Region,
		})
		if err != nil {
			config.Exitf("s3: %v", err)
		}
		images = s3c
		archive = s3c
	}

	var fwd export.Forwarder
	if backends.Remote {
		switch cfg.ForwardMode {
		case config.ForwardQueue:
			asq := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
			defer asq.Close()
			fwd = &export.Queue{Client: asq}
		default:
			if cfg.WebhookURL == "" {
				config.Exitf("EXPORT_BACKENDS includes remote but WEBHOOK_URL is not set")
			}
			fwd = &export.Webhook{URL: cfg.WebhookURL}
		}
	}

	rng, err := survey.NewRand()
	if err != nil {
		config.Exitf("rand: %v", err)
	}

	srv := httpSrv.NewServer(cfg.HTTPAddr, &httpSrv.Server{
		Store:    store,
		Survey:   survey.NewController(cat, rng, nil),
		Images:   images,
		Exporter: export.NewExporter(backends, fwd, archive, log),
		APIToken: cfg.APIToken,
		Log:      log,
	})
	log.Info("listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.Bool("export_local", backends.Local),
		zap.Bool("export_remote", backends.Remote),
		zap.Bool("export_archive", backends.Archive),
		zap.String("forward_mode", cfg.ForwardMode))
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
