package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/app"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/customers"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/devices"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/notify"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/platform/cache"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/platform/db"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/reports"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/transactions"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/jobs"
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
		logger.Error("connect database", slog.Any("error", err))
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

	customersRepo := customers.NewRepository(pool)
	devicesRepo := devices.NewRepository(pool)
	transactionsRepo := transactions.NewRepository(pool)

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportsService := reports.NewService(customersRepo, transactionsRepo, devicesRepo, reportCache)
	if err := reportCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("report cache subscription", slog.Any("error", err))
	}

	smsJob := jobs.NewSMSJob(notify.NewLogSender(logger), logger)
	warmupJob := jobs.NewReportsWarmupJob(reportsService, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendSMS, Handler: smsJob.Handle},
			{Type: jobs.TaskTypeReportsWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 5 * * *", Task: jobs.NewReportsWarmupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
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
