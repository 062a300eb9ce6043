package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/admindash/jobs"
)

// Enqueuer submits tasks. *asynq.Client satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    Enqueuer
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) (*JobsCLI, error) {
	if redisAddr == "" {
		return nil, errors.New("jobs cli: redis address required")
	}
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: redisAddr})
	return &JobsCLI{client: client, inspector: inspector}, nil
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// TriggerOptions tune the payload of a triggered job.
type TriggerOptions struct {
	Dataset  string
	Resource string
	Pages    int
	PageSize int
}

// Trigger enqueues a supported job by name.
func (c *JobsCLI) Trigger(ctx context.Context, name string, opts TriggerOptions) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	var task *asynq.Task
	var err error
	switch name {
	case jobs.TaskDatasetReload:
		task, err = jobs.NewDatasetReloadTask(opts.Dataset)
	case jobs.TaskListingWarm:
		task, err = jobs.NewListingWarmTask(opts.Resource, opts.Pages, opts.PageSize)
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(jobs.QueueDefault), asynq.MaxRetry(3))
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue() (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	return stats, nil
}

// ListScheduled returns scheduled task infos for observability.
func (c *JobsCLI) ListScheduled(size int) ([]*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if size <= 0 {
		size = 10
	}
	return c.inspector.ListScheduledTasks(jobs.QueueDefault, asynq.PageSize(size), asynq.Page(1))
}

func newJobsCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Trigger and inspect background jobs",
	}
	cmd.AddCommand(newJobsTriggerCommand(opts), newJobsStatsCommand(opts), newJobsScheduledCommand(opts))
	return cmd
}

func withJobs(opts *Options, fn func(*JobsCLI) error) error {
	c, err := NewJobsCLI(opts.RedisAddr)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

func newJobsTriggerCommand(opts *Options) *cobra.Command {
	var trigger TriggerOptions
	cmd := &cobra.Command{
		Use:       "trigger JOB",
		Short:     "Enqueue dataset:reload or listing:warm",
		Example:   "  listctl jobs trigger dataset:reload --dataset products\n  listctl jobs trigger listing:warm --resource tasks --pages 5",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{jobs.TaskDatasetReload, jobs.TaskListingWarm},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJobs(opts, func(c *JobsCLI) error {
				info, err := c.Trigger(cmd.Context(), args[0], trigger)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s as %s on %s\n", info.Type, info.ID, info.Queue)
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&trigger.Dataset, "dataset", "", "dataset to reload (all when empty)")
	flags.StringVar(&trigger.Resource, "resource", "products", "list to warm")
	flags.IntVar(&trigger.Pages, "pages", 3, "pages to warm")
	flags.IntVar(&trigger.PageSize, "page-size", 0, "rows per warmed page")
	return cmd
}

func newJobsStatsCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show queue counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withJobs(opts, func(c *JobsCLI) error {
				stats, err := c.InspectQueue()
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "QUEUE\tPENDING\tACTIVE\tSCHEDULED\tRETRY")
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
				return tw.Flush()
			})
		},
	}
}

func newJobsScheduledCommand(opts *Options) *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "scheduled",
		Short: "List scheduled tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withJobs(opts, func(c *JobsCLI) error {
				infos, err := c.ListScheduled(size)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTYPE\tNEXT RUN")
				for _, info := range infos {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", info.ID, info.Type, info.NextProcessAt.Format("2006-01-02 15:04:05"))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&size, "size", 10, "number of tasks to show")
	return cmd
}
