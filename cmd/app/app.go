// Package main is the entry point for the FX rates service.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fxrates/internal/config"
	"fxrates/internal/events"
	"fxrates/internal/metrics"
	"fxrates/internal/provider"
	"fxrates/internal/repository"
	"fxrates/internal/service"
	"fxrates/internal/worker"
)

// App holds all application dependencies and manages their lifecycle.
type App struct {
	cfg     *config.Config
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics

	db        *sql.DB
	rdb       *redis.Client
	rdbAsynq  *redis.Client
	publisher events.Publisher

	asynqClient *asynq.Client
	asynqServer *asynq.Server
	asynqMux    *asynq.ServeMux
	asynqmon    *asynqmon.HTTPHandler

	scheduler  *worker.Scheduler
	httpServer *http.Server
	eager      sync.WaitGroup
}

// NewApp initializes all dependencies and returns a ready-to-run App.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	app := &App{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewMetrics(),
	}

	if err := app.initStorage(ctx); err != nil {
		_ = app.close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.close()
		return nil, err
	}

	return app, nil
}

// close releases database, Redis and broker connections
func (app *App) close() error {
	var errs []error
	if app.asynqmon != nil {
		if err := app.asynqmon.Close(); err != nil {
			errs = append(errs, fmt.Errorf("asynqmon close: %w", err))
		}
	}
	if app.asynqClient != nil {
		if err := app.asynqClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("asynq client close: %w", err))
		}
	}
	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher close: %w", err))
		}
	}
	if app.rdbAsynq != nil {
		if err := app.rdbAsynq.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis asynq close: %w", err))
		}
	}
	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("db close: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (app *App) initStorage(ctx context.Context) error {
	opt, err := redis.ParseURL(app.cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("parse redis.url: %w", err)
	}
	app.rdb = redis.NewClient(opt)
	if err := app.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to Redis (%s): %w", opt.Addr, err)
	}
	app.logger.Infow("Connected to Redis", "addr", opt.Addr)

	if app.cfg.Database.Enabled {
		db, err := repository.OpenJournalDB(ctx, &app.cfg.Database, app.logger)
		if err != nil {
			return fmt.Errorf("open update-run journal: %w", err)
		}
		app.db = db
	}

	if app.cfg.Kafka.Enabled {
		app.publisher = events.NewKafkaPublisher(
			app.cfg.Kafka.Brokers,
			app.cfg.Kafka.Topic,
			time.Duration(app.cfg.Kafka.WriteTimeoutSec)*time.Second,
		)
		app.logger.Infow("Snapshot events enabled", "brokers", app.cfg.Kafka.Brokers, "topic", app.cfg.Kafka.Topic)
	} else {
		app.publisher = events.NopPublisher{}
	}

	return nil
}

func (app *App) initServices() error {
	store := repository.NewRedisRateStore(app.rdb, app.cfg.Cache.KeyPrefix)

	var journal repository.UpdateRunRepository = repository.NopUpdateRunRepository{}
	if app.db != nil {
		journal = repository.NewPostgresUpdateRunRepository(app.db)
	}

	feed := provider.NewECBProvider(app.cfg.Feed.URL, app.cfg.Feed.BaseCurrency, app.cfg.Feed.TimeoutSec)
	updater := service.NewRateUpdater(feed, store, journal, app.publisher, app.metrics, app.logger)
	ratesService := service.NewRatesService(store, journal, app.metrics, app.logger)

	runTimeout := time.Duration(app.cfg.Worker.TimeoutSec) * time.Second

	var dispatcher worker.Dispatcher
	switch app.cfg.Scheduler.Dispatch {
	case config.DispatchQueue:
		if err := app.initQueue(updater); err != nil {
			return err
		}
		dispatcher = worker.NewAsynqDispatcher(
			app.asynqClient,
			runTimeout,
			time.Duration(app.cfg.Worker.UniqueTTLSec)*time.Second,
			app.logger,
		)
	default:
		dispatcher = worker.NewInlineDispatcher(updater, runTimeout)
	}

	scheduler, err := worker.NewScheduler(app.cfg.Scheduler.Cron, dispatcher, app.logger)
	if err != nil {
		return err
	}
	app.scheduler = scheduler

	app.initHTTP(ratesService, store)
	return nil
}

// initQueue configures the asynq client, worker server and monitoring UI
// used in queue dispatch mode.
func (app *App) initQueue(updater worker.Updater) error {
	redisOpt, err := asynq.ParseRedisURI(app.cfg.Redis.AsynqURL)
	if err != nil {
		return fmt.Errorf("parse redis.asynq_url: %w", err)
	}
	opt, err := redis.ParseURL(app.cfg.Redis.AsynqURL)
	if err != nil {
		return fmt.Errorf("parse redis.asynq_url: %w", err)
	}

	app.rdbAsynq = redis.NewClient(opt)
	app.asynqClient = asynq.NewClient(redisOpt)
	app.asynqServer = asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: app.cfg.Worker.Concurrency,
			Logger:      app.logger,
		},
	)
	app.asynqMux = asynq.NewServeMux()
	app.asynqMux.HandleFunc(worker.TaskTypeRefreshRates, worker.NewRefreshRatesHandler(updater, app.logger))

	if app.cfg.Server.ServeAsynqmon {
		app.asynqmon = asynqmon.New(asynqmon.Options{
			RootPath:     "/monitoring",
			RedisConnOpt: redisOpt,
		})
	}

	app.logger.Infow("Asynq configured", "addr", opt.Addr, "concurrency", app.cfg.Worker.Concurrency)
	return nil
}

// Run starts the scheduler, the HTTP server and, in queue mode, the Asynq
// worker, blocking until the context is canceled.
func (app *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if app.cfg.Scheduler.RunOnStart {
		app.eager.Add(1)
		go func() {
			defer app.eager.Done()
			if err := app.scheduler.RunNow(ctx, repository.TriggerStartup); err != nil {
				app.logger.Errorw("Startup rate update failed", "error", err)
			}
		}()
	}

	app.scheduler.Start()

	if app.asynqServer != nil {
		g.Go(func() error {
			app.logger.Infow("Starting Asynq worker server")
			if err := app.asynqServer.Start(app.asynqMux); err != nil {
				return fmt.Errorf("asynq worker failed to start: %w", err)
			}

			<-ctx.Done()
			return nil
		})
	}

	g.Go(func() error {
		app.logger.Infow("HTTP server listening", "addr", app.httpServer.Addr)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown: triggered by context cancellation (signal or component failure).
	g.Go(func() error {
		<-ctx.Done()
		return app.shutdown()
	})

	return g.Wait()
}

// shutdown performs ordered teardown: HTTP server -> scheduler -> Asynq
// worker -> connections. A running update finishes or is canceled before the
// Redis and database connections close.
func (app *App) shutdown() error {
	app.logger.Infow("Shutting down server...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(app.cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	// 1. Stop accepting new HTTP requests, drain in-flight
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Errorw("HTTP server shutdown error", "error", err)
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	// 2. Stop scheduling, wait for the in-flight and startup runs
	if err := app.scheduler.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("scheduler stop: %w", err))
	}
	app.eager.Wait()

	// 3. Drain in-flight Asynq tasks
	if app.asynqServer != nil {
		app.asynqServer.Shutdown()
	}

	// 4. Close connections (asynq client, Kafka, Redis, database)
	if err := app.close(); err != nil {
		app.logger.Errorw("Connection cleanup errors", "error", err)
		errs = append(errs, err)
	}

	app.logger.Infow("Shutdown complete")
	return errors.Join(errs...)
}
