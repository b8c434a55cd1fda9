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

	"github.com/campuscanteen/canteen-api/internal/app"
	"github.com/campuscanteen/canteen-api/internal/auth"
	"github.com/campuscanteen/canteen-api/internal/identity"
	"github.com/campuscanteen/canteen-api/internal/maintenance"
	"github.com/campuscanteen/canteen-api/internal/observability"
	"github.com/campuscanteen/canteen-api/internal/platform/cache"
	"github.com/campuscanteen/canteen-api/internal/platform/db"
	"github.com/campuscanteen/canteen-api/internal/shared"
	"github.com/campuscanteen/canteen-api/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
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

	sessionManager := shared.NewSessionManager(redisClient, "canteen_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	directory := identity.NewDirectory(dbpool)
	identityProvider := identity.NewSessionProvider()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, directory, sessionManager, csrfManager)

	auditLogger := shared.NewAuditLogger(dbpool)

	maintenanceRepo := maintenance.NewRepository(dbpool)
	maintenanceCache := maintenance.NewCache(redisClient, cfg.MaintenancePollTTL)
	maintenanceService := maintenance.NewService(maintenanceRepo, maintenanceCache, auditLogger, logger)
	maintenanceHandler := maintenance.NewHandler(logger, maintenanceService)

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
	maintenanceService.OnScheduleChange(func(ctx context.Context, at time.Time) {
		if _, err := jobsClient.EnqueueMaintenanceWindows(ctx, at); err != nil {
			logger.Warn("enqueue window sweep", slog.Any("error", err))
		}
	})

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		IdentityProvider:   identityProvider,
		AuthHandler:        authHandler,
		MaintenanceHandler: maintenanceHandler,
		MaintenanceService: maintenanceService,
		JobHandler:         jobHandler,
		Metrics:            metrics,
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
