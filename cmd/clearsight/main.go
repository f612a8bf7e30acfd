package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/clearsight-bi/clearsight/internal/accounting"
	"github.com/clearsight-bi/clearsight/internal/app"
	"github.com/clearsight-bi/clearsight/internal/auth"
	"github.com/clearsight-bi/clearsight/internal/authz"
	"github.com/clearsight-bi/clearsight/internal/fraud"
	"github.com/clearsight-bi/clearsight/internal/insights"
	"github.com/clearsight-bi/clearsight/internal/kpi"
	"github.com/clearsight-bi/clearsight/internal/observability"
	"github.com/clearsight-bi/clearsight/internal/platform/cache"
	"github.com/clearsight-bi/clearsight/internal/platform/db"
	"github.com/clearsight-bi/clearsight/internal/shared"
	"github.com/clearsight-bi/clearsight/internal/tasks"
	"github.com/clearsight-bi/clearsight/internal/tenants"
	"github.com/clearsight-bi/clearsight/internal/users"
	"github.com/clearsight-bi/clearsight/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
		// Sessions live in redis, so the API cannot run without it.
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "clearsight_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	metrics := observability.NewMetrics()

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)
	guard := authz.Middleware{Source: usersService, Logger: logger}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, usersService)
	usersHandler := users.NewHandler(logger, usersService, guard)

	tenantsRepo := tenants.NewRepository(pool)
	tenantsService := tenants.NewService(tenantsRepo)
	tenantsHandler := tenants.NewHandler(logger, tenantsService, guard)

	tasksRepo := tasks.NewRepository(pool)
	tasksService := tasks.NewService(tasksRepo)
	tasksHandler := tasks.NewHandler(logger, tasksService, guard)

	fraudRepo := fraud.NewRepository(pool)
	fraudService := fraud.NewService(fraudRepo)
	fraudHandler := fraud.NewHandler(logger, fraudService, guard)

	accountingRepo := accounting.NewRepository(pool)
	accountingService := accounting.NewService(accountingRepo)
	accountingHandler := accounting.NewHandler(logger, accountingService, guard)

	kpiCache := kpi.NewCache(redisClient, 10*time.Minute)
	kpiRepo := kpi.NewRepository(pool)
	kpiService := kpi.NewService(kpiRepo, kpiCache)
	kpiHandler := kpi.NewHandler(logger, kpiService, guard)

	llmClient := insights.NewHTTPClient(cfg.LLMEndpoint, cfg.LLMAPIKey)
	assistantQuota := insights.NewQuota(redisClient, cfg.AssistantDailyQuota)
	insightsService := insights.NewService(llmClient, accountingService, kpiService, assistantQuota, metrics, cfg.LLMModel)
	insightsHandler := insights.NewHandler(logger, insightsService, guard)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, jobsClient, guard, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		Metrics:           metrics,
		AuthHandler:       authHandler,
		UsersHandler:      usersHandler,
		TenantsHandler:    tenantsHandler,
		TasksHandler:      tasksHandler,
		FraudHandler:      fraudHandler,
		AccountingHandler: accountingHandler,
		KPIHandler:        kpiHandler,
		InsightsHandler:   insightsHandler,
		JobsHandler:       jobsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
