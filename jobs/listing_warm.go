package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/admindash/internal/jobs"
	"github.com/odyssey-erp/admindash/internal/listclient"
)

// Warm-up defaults when the payload leaves them out.
const (
	defaultWarmPages = 3
	maxWarmPages     = 50
)

// ListingWarmJob requests the first pages of a list endpoint so the API
// servers populate their page cache.
type ListingWarmJob struct {
	Client  *listclient.Client
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewListingWarmJob wires dependencies for the warm-up handler.
func NewListingWarmJob(client *listclient.Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *ListingWarmJob {
	return &ListingWarmJob{Client: client, Logger: logger, Metrics: metrics}
}

// Handle processes listing warm-up tasks.
func (j *ListingWarmJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Client == nil {
		return errors.New("listing warm: handler not configured")
	}
	var payload ListingWarmPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if !slices.Contains(Resources, payload.Resource) {
		return fmt.Errorf("listing warm: unknown resource %q: %w", payload.Resource, asynq.SkipRetry)
	}
	pages := payload.Pages
	if pages <= 0 {
		pages = defaultWarmPages
	}
	pages = min(pages, maxWarmPages)

	metrics := metricsOrDefault(j.Metrics)
	tracker := metrics.Track(TaskListingWarm)
	defer func() { err = tracker.End(err) }()

	logger := jobLogger(j.Logger, TaskListingWarm).With(slog.String("resource", payload.Resource))
	start := time.Now()
	warmed, err := j.warm(ctx, payload.Resource, pages, payload.PageSize)
	metrics.AddWarmedPages(payload.Resource, warmed)
	if err != nil {
		logger.Error("warm list pages", slog.Int("warmed", warmed), slog.Any("error", err))
		return err
	}
	logger.Info("completed list warm-up", slog.Int("pages", warmed), slog.Duration("duration", time.Since(start)))
	return nil
}

// warm stops early once a page reports that no further pages exist.
func (j *ListingWarmJob) warm(ctx context.Context, resource string, pages, pageSize int) (int, error) {
	warmed := 0
	for page := 1; page <= pages; page++ {
		params := url.Values{"page": {strconv.Itoa(page)}}
		if pageSize > 0 {
			params.Set("pageSize", strconv.Itoa(pageSize))
		}
		// Responses are discarded, so rows are left undecoded.
		result, err := listclient.Fetch[json.RawMessage](ctx, j.Client, "/api/"+resource, params)
		if err != nil {
			return warmed, err
		}
		warmed++
		if page >= result.PageCount {
			break
		}
	}
	return warmed, nil
}
