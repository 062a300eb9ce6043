package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// ReloadChannel carries dataset names whose backing source changed. An
// empty payload or "*" reloads every dataset.
const ReloadChannel = "admindash:catalog:reload"

// Reloadable is the part of a Dataset the registry drives.
type Reloadable interface {
	Name() string
	Reload(ctx context.Context) error
}

// Registry tracks the datasets of the process.
type Registry struct {
	logger *slog.Logger

	mu       sync.RWMutex
	datasets map[string]Reloadable
}

// NewRegistry constructs an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger, datasets: make(map[string]Reloadable)}
}

// Register adds datasets, replacing any previous dataset of the same name.
func (r *Registry) Register(datasets ...Reloadable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ds := range datasets {
		r.datasets[ds.Name()] = ds
	}
}

// Names lists the registered dataset names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.datasets))
	for name := range r.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reload refreshes one dataset.
func (r *Registry) Reload(ctx context.Context, name string) error {
	r.mu.RLock()
	ds, ok := r.datasets[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("catalog: unknown dataset %q", name)
	}
	return ds.Reload(ctx)
}

// ReloadAll refreshes every dataset concurrently.
func (r *Registry) ReloadAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range r.Names() {
		g.Go(func() error {
			return r.Reload(ctx, name)
		})
	}
	return g.Wait()
}

// Listen reloads datasets as names arrive on ReloadChannel until ctx ends.
func (r *Registry) Listen(ctx context.Context, client *redis.Client) error {
	sub := client.Subscribe(ctx, ReloadChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("catalog: subscribe: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handleReload(ctx, msg.Payload)
		}
	}
}

func (r *Registry) handleReload(ctx context.Context, name string) {
	var err error
	if name == "" || name == "*" {
		err = r.ReloadAll(ctx)
	} else {
		err = r.Reload(ctx, name)
	}
	if err != nil {
		r.logger.Error("dataset reload failed", slog.String("dataset", name), slog.Any("error", err))
		return
	}
	r.logger.Info("dataset reloaded", slog.String("dataset", name))
}

// RequestReload asks every listening server to reload name. It returns the
// number of subscribers that received the request.
func RequestReload(ctx context.Context, client *redis.Client, name string) (int64, error) {
	n, err := client.Publish(ctx, ReloadChannel, name).Result()
	if err != nil {
		return 0, fmt.Errorf("catalog: publish reload: %w", err)
	}
	return n, nil
}
