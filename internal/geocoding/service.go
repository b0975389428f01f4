// Package geocoding enriches regions with reverse geocoded place names.
package geocoding

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/badursun/Roqua-sub000/internal/metrics"
	"github.com/badursun/Roqua-sub000/internal/models"
	"github.com/badursun/Roqua-sub000/internal/spatial"
)

// ErrNoResult is returned when the resolver knows nothing about a coordinate
var ErrNoResult = errors.New("no geocoding result")

// DefaultTimeout bounds one enrichment
const DefaultTimeout = 15 * time.Second

// Service enriches each region at most once, on its own goroutine
type Service struct {
	resolver Resolver
	cache    Cache
	timeout  time.Duration

	mu        sync.Mutex
	attempted map[string]struct{}
	wg        sync.WaitGroup

	logger *slog.Logger
}

// NewService creates an enrichment service. cache may be nil.
func NewService(resolver Resolver, cache Cache, timeout time.Duration, logger *slog.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		resolver:  resolver,
		cache:     cache,
		timeout:   timeout,
		attempted: make(map[string]struct{}),
		logger:    logger,
	}
}

// regionKey identifies a region across calls, persisted or not
func regionKey(r models.VisitedRegion) string {
	if r.ID != nil {
		return "id:" + strconv.FormatInt(*r.ID, 10)
	}
	return "mem:" + cacheKey(r) + "@" + strconv.FormatInt(r.FirstVisitAt.UnixNano(), 10)
}

func cacheKey(r models.VisitedRegion) string {
	if r.Geohash != "" {
		return r.Geohash
	}
	return spatial.EncodeGeohash(r.Latitude, r.Longitude, spatial.RegionGeohashPrecision)
}

// Enrich resolves the region asynchronously. completion receives the enriched
// copy and is only called on success. Repeated calls for a region are ignored.
func (s *Service) Enrich(region models.VisitedRegion, completion func(enriched models.VisitedRegion)) {
	key := regionKey(region)
	s.mu.Lock()
	if _, done := s.attempted[key]; done {
		s.mu.Unlock()
		return
	}
	s.attempted[key] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		place, ok := s.resolve(ctx, region)
		if !ok {
			return
		}
		enriched := region.Clone()
		place.ApplyTo(&enriched)
		completion(enriched)
	}()
}

func (s *Service) resolve(ctx context.Context, region models.VisitedRegion) (models.Place, bool) {
	key := "geo:" + cacheKey(region)
	if s.cache != nil {
		if place, ok := s.cache.Get(ctx, key); ok {
			metrics.EnrichmentTotal.WithLabelValues("cache_hit").Inc()
			return place, true
		}
	}

	t0 := time.Now()
	place, err := s.resolver.Reverse(ctx, region.Latitude, region.Longitude)
	metrics.EnrichmentDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	if err != nil {
		metrics.EnrichmentTotal.WithLabelValues("fail").Inc()
		if errors.Is(err, ErrNoResult) {
			s.logger.Debug("geocoding_no_result", "lat", region.Latitude, "lon", region.Longitude)
		} else {
			s.logger.Warn("geocoding_failed", "lat", region.Latitude, "lon", region.Longitude, "err", err)
		}
		return models.Place{}, false
	}

	metrics.EnrichmentTotal.WithLabelValues("success").Inc()
	if s.cache != nil {
		s.cache.Set(ctx, key, place)
	}
	return place, true
}

// Wait blocks until in-flight enrichments finish
func (s *Service) Wait() {
	s.wg.Wait()
}
