package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/admindash/internal/app"
	"github.com/odyssey-erp/admindash/internal/catalog"
	"github.com/odyssey-erp/admindash/internal/i18n"
	"github.com/odyssey-erp/admindash/internal/listing"
	"github.com/odyssey-erp/admindash/internal/navigation"
	"github.com/odyssey-erp/admindash/internal/observability"
	"github.com/odyssey-erp/admindash/internal/platform/cache"
	"github.com/odyssey-erp/admindash/internal/platform/db"
	"github.com/odyssey-erp/admindash/internal/preferences"
	"github.com/odyssey-erp/admindash/internal/products"
	"github.com/odyssey-erp/admindash/internal/tasks"
	"github.com/odyssey-erp/admindash/jobs"
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

	productLoader := products.EmbeddedLoader()
	taskLoader := tasks.EmbeddedLoader()
	if cfg.DataSource == app.DataSourcePostgres {
		pool, err := openPostgres(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		productLoader = products.NewRepository(pool)
		taskLoader = tasks.NewRepository(pool)
	}

	// Without Redis the lists are computed on every request and reloads
	// only happen at startup.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, list cache disabled", slog.Any("error", err))
			redisClient = nil
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
		}
	}

	metrics := observability.NewMetrics()
	listCache := listing.NewCache(redisClient, cfg.ListCacheTTL)

	productData := products.NewDataset(productLoader)
	taskData := tasks.NewDataset(taskLoader)
	productService := products.NewService(logger, productData, listCache, metrics, cfg.ListDefaultPageSize)
	taskService := tasks.NewService(logger, taskData, listCache, metrics, cfg.ListDefaultPageSize)

	registry := catalog.NewRegistry(logger)
	registry.Register(productData, taskData)
	if err := registry.ReloadAll(ctx); err != nil {
		logger.Error("load datasets", slog.Any("error", err))
		os.Exit(1)
	}
	if redisClient != nil {
		go func() {
			if err := registry.Listen(ctx, redisClient); err != nil {
				logger.Warn("dataset reload listener stopped", slog.Any("error", err))
			}
		}()
	}

	translator, err := i18n.New()
	if err != nil {
		logger.Error("load dictionaries", slog.Any("error", err))
		os.Exit(1)
	}
	preferencesHandler, err := preferences.NewHandler(logger, translator, cfg.PreferenceCookieSecure)
	if err != nil {
		logger.Error("init preferences", slog.Any("error", err))
		os.Exit(1)
	}
	sidebar, err := navigation.DefaultSidebar()
	if err != nil {
		logger.Error("load sidebar", slog.Any("error", err))
		os.Exit(1)
	}

	var jobHandler *jobs.Handler
	if redisClient != nil {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		ProductsHandler:    products.NewHandler(logger, productService),
		TasksHandler:       tasks.NewHandler(logger, taskService),
		PreferencesHandler: preferencesHandler,
		I18nHandler:        i18n.NewHandler(translator),
		NavigationHandler:  navigation.NewHandler(sidebar),
		JobHandler:         jobHandler,
		Metrics:            metrics,
		AccessLog:          true,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("data_source", cfg.DataSource))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

func openPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := db.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
