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

	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/app"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/auth"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/customers"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/devices"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/observability"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/platform/cache"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/platform/db"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/rbac"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/reports"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/roles"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/shared"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/transactions"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/users"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "mms_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	rbacRepo := rbac.NewRepository(dbpool)
	rbacService := rbac.NewService(rbacRepo, redisClient, cfg.SessionTTL)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, rbacService)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	rolesHandler := roles.NewHandler(logger, rbacService, rbacMiddleware)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	customersRepo := customers.NewRepository(dbpool)
	devicesRepo := devices.NewRepository(dbpool)
	transactionsRepo := transactions.NewRepository(dbpool)

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportsService := reports.NewService(customersRepo, transactionsRepo, devicesRepo, reportCache)
	if err := reportCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("report cache subscription", slog.Any("error", err))
	}

	customersService := customers.NewService(customersRepo, transactionsRepo, devicesRepo)
	customersHandler := customers.NewHandler(logger, customersService, rbacMiddleware)

	deliveryNotifier := jobs.NewDeliveryNotifier(jobsClient, customersService, cfg.SMSSenderName, logger)
	devicesService := devices.NewService(logger, devicesRepo, deliveryNotifier, reportsService, auditLogger)
	devicesHandler := devices.NewHandler(logger, devicesService, rbacMiddleware)

	transactionsService := transactions.NewService(logger, transactionsRepo, reportsService, auditLogger)
	transactionsHandler := transactions.NewHandler(logger, transactionsService, rbacMiddleware, idempotencyStore)

	reportsHandler := reports.NewHandler(logger, reportsService, rbacMiddleware)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		SessionManager:      sessionManager,
		CSRFManager:         csrfManager,
		AuthHandler:         authHandler,
		UsersHandler:        usersHandler,
		RolesHandler:        rolesHandler,
		CustomersHandler:    customersHandler,
		DevicesHandler:      devicesHandler,
		TransactionsHandler: transactionsHandler,
		ReportsHandler:      reportsHandler,
		JobHandler:          jobHandler,
		Metrics:             metrics,
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
