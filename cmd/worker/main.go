package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/campuscanteen/canteen-api/internal/app"
	"github.com/campuscanteen/canteen-api/internal/maintenance"
	"github.com/campuscanteen/canteen-api/internal/platform/cache"
	"github.com/campuscanteen/canteen-api/internal/platform/db"
	"github.com/campuscanteen/canteen-api/internal/shared"
	"github.com/campuscanteen/canteen-api/jobs"
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

	auditLogger := shared.NewAuditLogger(dbpool)
	maintenanceRepo := maintenance.NewRepository(dbpool)
	maintenanceCache := maintenance.NewCache(redisClient, cfg.MaintenancePollTTL)
	maintenanceService := maintenance.NewService(maintenanceRepo, maintenanceCache, auditLogger, logger)
	windowsJob := jobs.NewMaintenanceWindowsJob(maintenanceService, logger, nil)

	windowsTask, err := jobs.NewMaintenanceWindowsTask(time.Now().UTC())
	if err != nil {
		logger.Error("build windows task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskMaintenanceWindows, Handler: windowsJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "* * * * *", Task: windowsTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
