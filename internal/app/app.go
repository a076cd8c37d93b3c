// Package app is the composition root shared by the server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"fuelsurcharge/internal/activity"
	"fuelsurcharge/internal/config"
	"fuelsurcharge/internal/infra"
	"fuelsurcharge/internal/repository"
	"fuelsurcharge/internal/service"
	"fuelsurcharge/internal/settings"
	"fuelsurcharge/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// App holds every long-lived dependency of the process.
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client // nil when REDIS_URL is empty

	Records   repository.PriceRecordRepository
	Logs      repository.ActivityLogRepository
	Sink      *activity.DBSink
	Cache     infra.PriceCache
	Registry  worker.TriggerRegistry
	Settings  service.SettingsService
	Updates   service.UpdateService
	Scheduler *worker.Scheduler
}

// ErrNoSharedState is returned for operations that only make sense against the
// trigger registry and cache a running server reads, which needs Redis.
var ErrNoSharedState = errors.New("REDIS_URL is not set: trigger registry and cache are local to this process")

// RequireSharedState fails when the cache and trigger registry live in this
// process's memory and are therefore invisible to the server.
func (a *App) RequireSharedState(op string) error {
	if a.Redis == nil {
		return fmt.Errorf("%s: %w", op, ErrNoSharedState)
	}
	return nil
}

// New connects to storage and builds the service graph. The settings row is
// seeded from cfg on first start.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	a := &App{Config: cfg, DB: db}

	if cfg.RedisURL != "" {
		rdb, err := infra.NewRedis(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.Redis = rdb
		a.Cache = infra.NewRedisPriceCache(rdb)
		a.Registry = worker.NewRedisTriggerRegistry(rdb)
	} else {
		log.Warn().Msg("app: REDIS_URL not set, using in-memory cache and trigger registry")
		a.Cache = infra.NewMemoryPriceCache()
		a.Registry = worker.NewMemoryTriggerRegistry()
	}

	a.Records = repository.NewPriceRecordRepository(db)
	a.Logs = repository.NewActivityLogRepository(db)
	a.Sink = activity.NewDBSink(a.Logs)

	defaults, err := settings.FromConfig(cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("default settings: %w", err)
	}
	a.Settings = service.NewSettingsService(repository.NewSettingsRepository(db), defaults, a.Cache, a.Sink)
	if err := a.Settings.Seed(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("seed settings: %w", err)
	}

	a.Updates = service.NewUpdateService(service.UpdateDeps{
		Settings: a.Settings,
		Fetcher:  infra.NewHTTPFetcher(cfg.FetchTimeout()),
		Probe:    infra.NewHTTPFetcher(cfg.ConnectionTestTimeout()),
		Cache:    a.Cache,
		Records:  a.Records,
		Sink:     a.Sink,
	})

	a.Scheduler = worker.NewScheduler(a.Registry, a.Settings, a.Sink, cfg.Location())
	a.Settings.SetRescheduler(a.Scheduler)

	return a, nil
}

// TriggerHandlers maps each registered trigger to the work it starts.
func (a *App) TriggerHandlers() map[string]worker.TriggerHandler {
	return map[string]worker.TriggerHandler{
		worker.UpdateTriggerID: func(ctx context.Context) {
			out := a.Updates.Run(ctx, false)
			if !out.Success {
				log.Warn().Str("error", string(out.Error)).Str("message", out.Message).Msg("app: scheduled update failed")
			}
		},
		worker.LogCleanupTriggerID: func(ctx context.Context) {
			if _, err := a.Sink.Prune(ctx, a.Config.LogRetention()); err != nil {
				log.Error().Err(err).Msg("app: log cleanup failed")
			}
		},
	}
}

// StartBackground registers the recurring triggers and starts the trigger
// loop. It returns once the registrations are in place.
func (a *App) StartBackground(ctx context.Context) error {
	if err := a.Scheduler.ScheduleUpdate(ctx); err != nil {
		return fmt.Errorf("schedule update: %w", err)
	}
	if err := a.Scheduler.EnsureLogCleanup(ctx, a.Config.LogRetention()); err != nil {
		return fmt.Errorf("schedule log cleanup: %w", err)
	}
	worker.StartTriggerLoop(ctx, worker.LoopConfig{
		Registry: a.Registry,
		Handlers: a.TriggerHandlers(),
		Tick:     a.Config.TriggerTick(),
		Location: a.Config.Location(),
	})
	return nil
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("app: redis close")
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
