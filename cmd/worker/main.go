package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sitecrew/sitecrew/internal/app"
	jobmetrics "github.com/sitecrew/sitecrew/internal/jobs"
	"github.com/sitecrew/sitecrew/internal/observability"
	"github.com/sitecrew/sitecrew/internal/platform/cache"
	"github.com/sitecrew/sitecrew/internal/platform/db"
	"github.com/sitecrew/sitecrew/internal/shared"
	"github.com/sitecrew/sitecrew/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if cfg.PGDSN == "" || cfg.RedisAddr == "" {
		logger.Error("worker requires PG_DSN and REDIS_ADDR")
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.WithAppName("sitecrew-worker"))
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := jobmetrics.NewMetrics(observability.NewMetrics().Registerer())
	auditJob := jobs.NewAuditWriteJob(shared.NewAuditLogger(pool), logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   cache.QueueOpts(cfg.RedisAddr),
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAuditWrite, Handler: auditJob.Handle},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting audit worker", slog.String("queue", jobs.QueueAudit))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
