package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/admindash/internal/catalog"
	jobmetrics "github.com/odyssey-erp/admindash/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DatasetReloadJob relays reload requests to the API servers over the
// catalog reload channel.
type DatasetReloadJob struct {
	Redis   *redis.Client
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewDatasetReloadJob wires dependencies for the reload handler.
func NewDatasetReloadJob(client *redis.Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *DatasetReloadJob {
	return &DatasetReloadJob{Redis: client, Logger: logger, Metrics: metrics}
}

// Handle processes dataset reload tasks.
func (j *DatasetReloadJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Redis == nil {
		return errors.New("dataset reload: handler not configured")
	}
	var payload DatasetReloadPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := metricsOrDefault(j.Metrics).Track(TaskDatasetReload)
	defer func() { err = tracker.End(err) }()

	logger := jobLogger(j.Logger, TaskDatasetReload).With(slog.String("dataset", payload.Dataset))
	receivers, err := catalog.RequestReload(ctx, j.Redis, payload.Dataset)
	if err != nil {
		logger.Error("publish reload", slog.Any("error", err))
		return err
	}
	if receivers == 0 {
		logger.Warn("no server is listening for reloads")
		return nil
	}
	logger.Info("reload requested", slog.Int64("servers", receivers))
	return nil
}

func metricsOrDefault(m *jobmetrics.Metrics) *jobmetrics.Metrics {
	if m != nil {
		return m
	}
	return defaultJobMetrics
}

func jobLogger(logger *slog.Logger, job string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("job", job))
}
