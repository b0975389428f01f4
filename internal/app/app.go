// Package app wires every component together. Nothing here is global: each
// dependency is built once in New and handed to its consumers.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/badursun/Roqua-sub000/internal/achievement"
	"github.com/badursun/Roqua-sub000/internal/api"
	"github.com/badursun/Roqua-sub000/internal/cache"
	"github.com/badursun/Roqua-sub000/internal/calculator"
	"github.com/badursun/Roqua-sub000/internal/config"
	"github.com/badursun/Roqua-sub000/internal/coverage"
	"github.com/badursun/Roqua-sub000/internal/database"
	"github.com/badursun/Roqua-sub000/internal/events"
	"github.com/badursun/Roqua-sub000/internal/geocoding"
	"github.com/badursun/Roqua-sub000/internal/handler"
	"github.com/badursun/Roqua-sub000/internal/ingest"
	"github.com/badursun/Roqua-sub000/internal/middleware"
	"github.com/badursun/Roqua-sub000/internal/region"
	"github.com/badursun/Roqua-sub000/internal/repository"
	"github.com/badursun/Roqua-sub000/internal/service"
)

const (
	placeCacheSize = 4096
	placeCacheTTL  = 24 * time.Hour
)

// App owns the running components
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	db       *sql.DB
	redis    *redis.Client
	bus      *events.Bus
	geocoder *geocoding.Service
	store    *region.Store
	index    *coverage.Index
	engine   *achievement.Engine
	pipeline *ingest.Pipeline
	service  *service.ExplorationService

	router *gin.Engine
	cancel context.CancelFunc
}

// New opens storage, restores state and builds the HTTP router
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{cfg: cfg, logger: logger}

	db, err := database.Open(database.Config{Path: cfg.DBPath})
	if err != nil {
		return nil, err
	}
	a.db = db
	if err := database.NewMigrationManager(db, logger).RunMigrations(ctx); err != nil {
		a.closeStorage()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	client, err := cache.Open(ctx, cfg.RedisURL)
	if err != nil {
		// the in-process cache is enough to run
		logger.Warn("redis_unavailable", "err", err)
	}
	a.redis = client

	settings := cfg.Exploration
	settings.Normalize()

	a.bus = events.NewBus(logger)
	a.index = coverage.NewIndex(settings.ExplorationRadiusMeters, settings.PercentageDecimalPlaces,
		repository.NewCoverageRepository(db), a.bus, logger)

	opts := []region.Option{}
	if cfg.GeocoderURL != "" {
		a.geocoder = a.newGeocoder()
		opts = append(opts, region.WithEnricher(a.geocoder))
	}
	a.store = region.NewStore(settings, repository.NewRegionRepository(db), a.index, a.bus, logger, opts...)

	calcs := calculator.NewRegistry(a.index, logger)
	a.engine = achievement.NewEngine(a.store, calcs, repository.NewProgressRepository(db), a.bus, logger)
	if err := a.loadCatalog(); err != nil {
		a.closeStorage()
		return nil, err
	}

	if err := a.restore(ctx); err != nil {
		a.closeStorage()
		return nil, err
	}

	a.pipeline = ingest.NewPipeline(a.store, settings, logger)
	a.service = service.NewExplorationService(a.store, a.index, a.engine, a.pipeline)

	runCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	var limiter *middleware.RateLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = middleware.NewRateLimiter(runCtx, cfg.RateLimitPerMinute, time.Minute)
	}
	a.router = api.SetupRouter(cfg, api.Handlers{
		Fix:         handler.NewFixHandler(a.pipeline),
		Region:      handler.NewRegionHandler(a.store),
		Exploration: handler.NewExplorationHandler(a.service),
		Achievement: handler.NewAchievementHandler(a.engine),
		Admin:       handler.NewAdminHandler(a.service, logger),
	}, limiter, logger)

	a.engine.Attach(a.bus)
	a.pipeline.Start(runCtx)

	return a, nil
}

func (a *App) newGeocoder() *geocoding.Service {
	var placeCache geocoding.Cache = geocoding.NewLRU(placeCacheSize, placeCacheTTL)
	if a.redis != nil {
		placeCache = geocoding.NewChain(placeCache, cache.NewRedisPlaceCache(a.redis, cache.DefaultPlaceTTL, a.logger))
	}
	resolver := geocoding.NewHTTPResolver(a.cfg.GeocoderURL, a.cfg.GeocoderUserAgent,
		&http.Client{Timeout: a.cfg.GeocoderTimeout}, a.logger)
	return geocoding.NewService(resolver, placeCache, a.cfg.GeocoderTimeout, a.logger)
}

func (a *App) loadCatalog() error {
	data := achievement.DefaultCatalog()
	if path := a.cfg.AchievementCatalogPath; path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read achievement catalog: %w", err)
		}
		data = b
	}
	err := a.engine.LoadCatalog(data)
	if err != nil && !achievement.IsInvalid(err) {
		return err
	}
	if err != nil {
		a.logger.Warn("achievement_catalog_rejected_entries", "err", err)
	}
	a.logger.Info("achievement_catalog_loaded", "count", a.engine.Stats().Total)
	return nil
}

// restore hydrates memory from the durable stores
func (a *App) restore(ctx context.Context) error {
	if err := a.store.Load(ctx); err != nil {
		return fmt.Errorf("failed to load regions: %w", err)
	}
	if err := a.index.Load(ctx); err != nil {
		return fmt.Errorf("failed to load coverage: %w", err)
	}
	if err := a.engine.Load(ctx); err != nil {
		return fmt.Errorf("failed to load achievement progress: %w", err)
	}
	a.logger.Info("state_restored",
		"regions", a.store.Count(),
		"cells", a.index.CellCount(),
		"coverage", a.index.FormattedPercentage())
	return nil
}

// Handler returns the HTTP handler
func (a *App) Handler() http.Handler {
	return a.router
}

// Service returns the exploration service
func (a *App) Service() *service.ExplorationService {
	return a.service
}

// Pipeline returns the ingest pipeline
func (a *App) Pipeline() *ingest.Pipeline {
	return a.pipeline
}

// Engine returns the achievement engine
func (a *App) Engine() *achievement.Engine {
	return a.engine
}

// Close stops the worker, drains the bus, flushes pending progress and
// releases storage.
func (a *App) Close(ctx context.Context) error {
	var errs []error

	a.pipeline.Stop()
	if a.geocoder != nil {
		a.geocoder.Wait()
	}
	a.bus.Close()
	if err := a.engine.Flush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to flush achievement progress: %w", err))
	}
	a.cancel()

	errs = append(errs, a.closeStorage())
	return errors.Join(errs...)
}

func (a *App) closeStorage() error {
	var errs []error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
