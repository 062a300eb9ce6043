package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/admindash/internal/app"
	jobmetrics "github.com/odyssey-erp/admindash/internal/jobs"
	"github.com/odyssey-erp/admindash/internal/listclient"
	"github.com/odyssey-erp/admindash/internal/platform/cache"
	"github.com/odyssey-erp/admindash/jobs"
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

	if cfg.RedisAddr == "" {
		logger.Error("REDIS_ADDR is required by the worker")
		os.Exit(1)
	}
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

	apiClient, err := listclient.NewClient(cfg.APIBaseURL, nil)
	if err != nil {
		logger.Error("init api client", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := jobmetrics.NewMetrics(nil)
	reloadJob := jobs.NewDatasetReloadJob(redisClient, logger, metrics)
	warmJob := jobs.NewListingWarmJob(apiClient, logger, metrics)

	cron := make([]jobs.CronRegistration, 0, len(jobs.Resources))
	for _, resource := range jobs.Resources {
		task, err := jobs.NewListingWarmTask(resource, 3, cfg.ListDefaultPageSize)
		if err != nil {
			logger.Error("build warm task", slog.String("resource", resource), slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{Spec: "*/10 * * * *", Task: task, Options: []asynq.Option{asynq.MaxRetry(1)}})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDatasetReload, Handler: reloadJob.Handle},
			{Type: jobs.TaskListingWarm, Handler: warmJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
