package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/clearsight-bi/clearsight/internal/accounting"
	"github.com/clearsight-bi/clearsight/internal/app"
	"github.com/clearsight-bi/clearsight/internal/fraud"
	"github.com/clearsight-bi/clearsight/internal/kpi"
	"github.com/clearsight-bi/clearsight/internal/platform/cache"
	"github.com/clearsight-bi/clearsight/internal/platform/db"
	"github.com/clearsight-bi/clearsight/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	accountingRepo := accounting.NewRepository(pool)
	accountingService := accounting.NewService(accountingRepo)

	kpiCache := kpi.NewCache(redisClient, 10*time.Minute)
	kpiRepo := kpi.NewRepository(pool)
	kpiService := kpi.NewService(kpiRepo, kpiCache)

	fraudRepo := fraud.NewRepository(pool)
	fraudService := fraud.NewService(fraudRepo)

	warmupJob := jobs.NewInsightsWarmupJob(accountingService, kpiService, pool, logger, nil)
	anomalyJob := jobs.NewAnomalyScanJob(fraudService, pool, logger, nil)

	warmupTask, err := jobs.NewInsightsWarmupTask(jobs.InsightsWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	anomalyTask, err := jobs.NewAnomalyScanTask(jobs.AnomalyScanPayload{WindowDays: 90, Z: 2.5})
	if err != nil {
		logger.Error("build anomaly task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskInsightsWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskAnomalyScan, Handler: anomalyJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 1 * * *", Task: anomalyTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
