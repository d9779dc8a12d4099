// Package app initializes and holds long-lived application services, acting
// as the dependency injection container for the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gcstorage "cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/JakeFAU/daily-supplications/internal/advice"
	"github.com/JakeFAU/daily-supplications/internal/api"
	"github.com/JakeFAU/daily-supplications/internal/catalog"
	"github.com/JakeFAU/daily-supplications/internal/clock/system"
	"github.com/JakeFAU/daily-supplications/internal/config"
	"github.com/JakeFAU/daily-supplications/internal/kv"
	"github.com/JakeFAU/daily-supplications/internal/kv/gcs"
	"github.com/JakeFAU/daily-supplications/internal/kv/local"
	"github.com/JakeFAU/daily-supplications/internal/kv/memory"
	"github.com/JakeFAU/daily-supplications/internal/kv/postgres"
	"github.com/JakeFAU/daily-supplications/internal/kv/redis"
	"github.com/JakeFAU/daily-supplications/internal/kv/sqlite"
	"github.com/JakeFAU/daily-supplications/internal/metrics"
	"github.com/JakeFAU/daily-supplications/internal/progress"
	"github.com/JakeFAU/daily-supplications/internal/progress/sinks"
	"github.com/JakeFAU/daily-supplications/internal/publisher"
	pubmemory "github.com/JakeFAU/daily-supplications/internal/publisher/memory"
	"github.com/JakeFAU/daily-supplications/internal/publisher/pubsub"
	"github.com/JakeFAU/daily-supplications/internal/reminder"
	"github.com/JakeFAU/daily-supplications/internal/settings"
	"github.com/JakeFAU/daily-supplications/internal/store"
)

// readinessKey is read by Ready to confirm the kv backend answers.
const readinessKey = "readinessProbe"

type closer struct {
	name string
	fn   func() error
}

// App holds the shared, long-lived services for one process.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	kv       kv.Store
	registry *prometheus.Registry
	hub      *progress.Hub

	progress  *store.ProgressStore
	settings  *settings.Service
	catalog   *catalog.Catalog
	advice    *advice.Book
	rotator   *advice.Rotator
	publisher publisher.Publisher
	scheduler *reminder.Scheduler

	closers []closer
}

// New builds every service from cfg, loads the stored preferences, and loads
// the active language's partition. It fails fast and releases anything it
// opened if a service cannot be initialized.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	a := &App{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}

	if err := a.init(ctx); err != nil {
		if cerr := a.Close(context.Background()); cerr != nil {
			logger.Warn("cleanup after failed init", zap.Error(cerr))
		}
		return nil, err
	}
	logger.Info("application services initialized",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("language", string(a.settings.Language())),
		zap.Bool("reminders", a.scheduler != nil))
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	kvStore, err := a.openKV(ctx)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	a.kv = kvStore

	if a.cfg.Reminders.Enabled || a.cfg.Progress.PublishTopic != "" {
		if a.publisher, err = a.openPublisher(ctx); err != nil {
			return fmt.Errorf("init publisher: %w", err)
		}
	}

	progressLogger := a.logger.Named("progress")
	sinkList := []progress.Sink{sinks.NewLogSink(progressLogger)}
	if a.cfg.Progress.Prometheus {
		promSink, err := sinks.NewPrometheusSink(a.registry)
		if err != nil {
			return fmt.Errorf("init progress metrics: %w", err)
		}
		sinkList = append(sinkList, promSink)
	}
	if a.cfg.Progress.PublishTopic != "" {
		sinkList = append(sinkList, sinks.NewPublishSink(a.publisher, a.cfg.Progress.PublishTopic, progressLogger))
	}
	a.hub = progress.NewHub(progress.Config{
		BufferSize:     a.cfg.Progress.BufferSize,
		MaxBatchEvents: a.cfg.Progress.MaxBatchEvents,
		MaxBatchWait:   a.cfg.Progress.MaxBatchWait,
		Logger:         progressLogger,
	}, sinkList...)

	if a.progress, err = store.New(a.kv, system.New(), a.hub, a.logger.Named("store")); err != nil {
		return fmt.Errorf("init progress store: %w", err)
	}
	if a.settings, err = settings.New(a.kv, a.cfg.DefaultLanguage, a.logger.Named("settings")); err != nil {
		return fmt.Errorf("init settings: %w", err)
	}
	a.settings.OnLanguageChange(func(ctx context.Context, lang catalog.Language) error {
		_, err := a.progress.Load(ctx, lang)
		return err
	})

	if a.catalog, err = catalog.Load(); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if a.advice, err = advice.Load(); err != nil {
		return fmt.Errorf("load advice: %w", err)
	}
	a.rotator = advice.NewRotator(a.advice, a.settings.Language, a.cfg.Advice.Interval, a.logger.Named("advice"))

	if a.cfg.Reminders.Enabled {
		loc, err := a.cfg.Location()
		if err != nil {
			return err
		}
		a.scheduler, err = reminder.NewScheduler(a.settings, a.publisher, reminder.Config{
			Topic:    a.cfg.Reminders.Topic,
			Location: loc,
			Recheck:  a.cfg.Reminders.Recheck,
			Clock:    system.NewIn(loc),
			Logger:   a.logger.Named("reminder"),
		})
		if err != nil {
			return fmt.Errorf("init reminders: %w", err)
		}
	}

	if _, err := a.settings.Load(ctx); err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	return nil
}

func (a *App) openKV(ctx context.Context) (kv.Store, error) {
	sc := a.cfg.Storage
	l := a.logger
	switch sc.Backend {
	case config.BackendMemory:
		l.Info("using in-memory storage; state is lost on exit")
		return memory.New(), nil
	case config.BackendLocal:
		l.Info("using local storage", zap.String("dir", sc.Local.BaseDir))
		return local.New(sc.Local)
	case config.BackendSQLite:
		l.Info("using sqlite storage", zap.String("path", sc.SQLite.Path))
		s, err := sqlite.Open(ctx, sc.SQLite)
		if err != nil {
			return nil, err
		}
		a.onClose("sqlite", s.Close)
		return s, nil
	case config.BackendPostgres:
		l.Info("connecting to PostgreSQL", zap.String("table", sc.Postgres.Table))
		s, err := postgres.New(ctx, sc.Postgres)
		if err != nil {
			return nil, err
		}
		a.onClose("postgres", func() error { s.Close(); return nil })
		return s, nil
	case config.BackendRedis:
		l.Info("connecting to Redis", zap.String("addr", sc.Redis.Addr))
		s, err := redis.New(ctx, sc.Redis)
		if err != nil {
			return nil, err
		}
		a.onClose("redis", s.Close)
		return s, nil
	case config.BackendGCS:
		l.Info("using GCS storage", zap.String("bucket", sc.GCS.Bucket))
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create gcs client: %w", err)
		}
		a.onClose("gcs", client.Close)
		return gcs.New(client, sc.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", sc.Backend)
	}
}

func (a *App) openPublisher(ctx context.Context) (publisher.Publisher, error) {
	switch a.cfg.Reminders.Publisher {
	case config.PublisherLog, "":
		return publisher.NewLog(a.logger.Named("publisher")), nil
	case config.PublisherMemory:
		return pubmemory.New(), nil
	case config.PublisherPubSub:
		a.logger.Info("connecting to GCP Pub/Sub", zap.String("topic", a.cfg.Reminders.PubSub.TopicName))
		p, err := pubsub.New(ctx, a.cfg.Reminders.PubSub)
		if err != nil {
			return nil, err
		}
		a.onClose("pubsub", p.Close)
		return p, nil
	default:
		return nil, fmt.Errorf("unknown publisher: %s", a.cfg.Reminders.Publisher)
	}
}

func (a *App) onClose(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// Logger returns the root logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Config returns the configuration the app was built from.
func (a *App) Config() config.Config { return a.cfg }

// Progress returns the progress store.
func (a *App) Progress() *store.ProgressStore { return a.progress }

// Settings returns the preferences service.
func (a *App) Settings() *settings.Service { return a.settings }

// Catalog returns the bundled supplication tables.
func (a *App) Catalog() *catalog.Catalog { return a.catalog }

// Advice returns the bundled advice lists.
func (a *App) Advice() *advice.Book { return a.advice }

// Rotator returns the advice rotator.
func (a *App) Rotator() *advice.Rotator { return a.rotator }

// Publisher returns the notification publisher, or nil when nothing publishes.
func (a *App) Publisher() publisher.Publisher { return a.publisher }

// Scheduler returns the reminder scheduler, or nil when reminders are disabled.
func (a *App) Scheduler() *reminder.Scheduler { return a.scheduler }

// MetricsHandler serves the default registry merged with the progress collectors.
func (a *App) MetricsHandler() http.Handler { return metrics.Handler(a.registry) }

// Ready reports whether the kv backend answers reads.
func (a *App) Ready(ctx context.Context) error {
	if a.kv == nil {
		return errors.New("storage not initialized")
	}
	if _, err := a.kv.Get(ctx, readinessKey); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return fmt.Errorf("storage not ready: %w", err)
	}
	return nil
}

// Server builds the HTTP API over the app's services.
func (a *App) Server() (*api.Server, error) {
	return api.NewServer(api.Deps{
		Progress: a.progress,
		Settings: a.settings,
		Catalog:  a.catalog,
		Advice:   a.advice,
		Rotator:  a.rotator,
		Metrics:  a.MetricsHandler(),
		Ready:    a.Ready,
	}, a.cfg, a.logger.Named("api"))
}

// Close drains the progress hub and releases backend clients in reverse
// order of creation.
func (a *App) Close(ctx context.Context) error {
	a.logger.Info("shutting down application services")
	var errs []error
	if a.hub != nil {
		if err := a.hub.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close progress hub: %w", err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			a.logger.Warn("error closing client", zap.String("client", c.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
