// Package region owns the set of visited regions and decides whether a fix
// extends an existing region or starts a new one.
package region

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/badursun/Roqua-sub000/internal/config"
	"github.com/badursun/Roqua-sub000/internal/events"
	"github.com/badursun/Roqua-sub000/internal/metrics"
	"github.com/badursun/Roqua-sub000/internal/models"
	"github.com/badursun/Roqua-sub000/internal/spatial"
	"github.com/badursun/Roqua-sub000/internal/stats"
)

// UpdateCooldown is the minimum time between two visits counted on one region
const UpdateCooldown = 30 * time.Second

// Repository is the durable region store
type Repository interface {
	Insert(ctx context.Context, region models.VisitedRegion) (int64, error)
	Update(ctx context.Context, region models.VisitedRegion) error
	FetchAll(ctx context.Context) ([]models.VisitedRegion, error)
	DeleteAll(ctx context.Context) error
}

// CoverageRegistrar receives the footprint of every new region
type CoverageRegistrar interface {
	Register(ctx context.Context, region models.VisitedRegion) int
}

// Enricher reverse geocodes a region asynchronously. completion receives the
// enriched copy and is only called on success.
type Enricher interface {
	Enrich(region models.VisitedRegion, completion func(enriched models.VisitedRegion))
}

// Kind is the decision taken for one fix
type Kind int

const (
	Ignored Kind = iota
	Created
	Updated
)

func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "ignored"
	}
}

// Reasons reported with Ignored outcomes
const (
	ReasonCooldown = "cooldown"
	ReasonTooClose = "too_close"
	ReasonInvalid  = "invalid_coordinate"
)

// Outcome is the result of Ingest. Region is a snapshot copy.
type Outcome struct {
	Kind   Kind                  `json:"kind"`
	Region *models.VisitedRegion `json:"region,omitempty"`
	Reason string                `json:"reason,omitempty"`
}

// Stats summarises the in-memory region set
type Stats struct {
	Regions   int `json:"regions"`
	Enriched  int `json:"enriched"`
	Cities    int `json:"cities"`
	Districts int `json:"districts"`
	Countries int `json:"countries"`

	VisitCount stats.Summary `json:"visitCount"`
	Accuracy   stats.Summary `json:"accuracy"` // meters, regions with a recorded accuracy
}

// Store is the region cluster store. All mutation happens under mu.
type Store struct {
	mu       sync.Mutex
	regions  []*models.VisitedRegion // oldest first
	settings config.Exploration

	// generation is bumped on Reset so late enrichment results are dropped
	generation uint64

	seenCities    map[string]struct{}
	seenDistricts map[string]struct{}
	seenCountries map[string]struct{}

	repo      Repository
	coverage  CoverageRegistrar
	enricher  Enricher
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the clock used when a fix carries no timestamp
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithEnricher sets the reverse geocoding collaborator
func WithEnricher(e Enricher) Option {
	return func(s *Store) { s.enricher = e }
}

// NewStore creates a region store. repo, coverage and publisher may be nil.
func NewStore(settings config.Exploration, repo Repository, coverage CoverageRegistrar, publisher events.Publisher, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	settings.Normalize()
	s := &Store{
		settings:      settings,
		seenCities:    make(map[string]struct{}),
		seenDistricts: make(map[string]struct{}),
		seenCountries: make(map[string]struct{}),
		repo:          repo,
		coverage:      coverage,
		publisher:     publisher,
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest applies one accepted fix to the region set
func (s *Store) Ingest(ctx context.Context, fix models.PositionFix) Outcome {
	if !spatial.ValidCoordinate(fix.Latitude, fix.Longitude) {
		metrics.RegionsTotal.WithLabelValues("ignored").Inc()
		return Outcome{Kind: Ignored, Reason: ReasonInvalid}
	}

	now := fix.Timestamp
	if now.IsZero() {
		now = s.now()
	}

	s.mu.Lock()
	clustering := s.settings.ClusteringRadiusMeters
	searchRadius := 2 * clustering

	var candidate *models.VisitedRegion
	candidateDist := math.MaxFloat64
	minNearby := math.MaxFloat64
	for _, r := range s.regions {
		d := spatial.HaversineDistance(fix.Latitude, fix.Longitude, r.Latitude, r.Longitude)
		if d > searchRadius {
			continue
		}
		if d < minNearby {
			minNearby = d
		}
		if d < clustering && d < candidateDist {
			candidate = r
			candidateDist = d
		}
	}

	if candidate != nil {
		out := s.updateLocked(ctx, candidate, now)
		s.mu.Unlock()
		s.finish(out)
		return out
	}

	if minNearby <= s.settings.TrackingDistanceMeters/2 {
		s.mu.Unlock()
		out := Outcome{Kind: Ignored, Reason: ReasonTooClose}
		s.finish(out)
		return out
	}

	region, gen := s.createLocked(ctx, fix, now)
	snapshot := region.Clone()
	autoEnrich := s.settings.AutoEnrichNewRegions && s.enricher != nil
	s.mu.Unlock()

	if s.coverage != nil {
		s.coverage.Register(ctx, snapshot)
	}
	out := Outcome{Kind: Created, Region: &snapshot}
	s.finish(out)

	if autoEnrich {
		s.enricher.Enrich(snapshot.Clone(), func(enriched models.VisitedRegion) {
			s.applyEnrichment(context.Background(), gen, region, enriched)
		})
	}
	return out
}

func (s *Store) updateLocked(ctx context.Context, r *models.VisitedRegion, now time.Time) Outcome {
	if now.Sub(r.LastSeen()) < UpdateCooldown {
		return Outcome{Kind: Ignored, Reason: ReasonCooldown}
	}
	r.VisitCount++
	t := now
	r.LastVisitAt = &t

	if s.repo != nil && r.ID != nil {
		if err := s.repo.Update(ctx, *r); err != nil {
			metrics.PersistFailuresTotal.WithLabelValues("region").Inc()
			s.logger.Error("region_update_failed", "id", *r.ID, "err", err)
		}
	}
	snapshot := r.Clone()
	return Outcome{Kind: Updated, Region: &snapshot}
}

func (s *Store) createLocked(ctx context.Context, fix models.PositionFix, now time.Time) (*models.VisitedRegion, uint64) {
	r := &models.VisitedRegion{
		Latitude:     fix.Latitude,
		Longitude:    fix.Longitude,
		Radius:       s.settings.ExplorationRadiusMeters,
		FirstVisitAt: now,
		VisitCount:   1,
		Geohash:      spatial.EncodeGeohash(fix.Latitude, fix.Longitude, spatial.RegionGeohashPrecision),
	}
	if fix.Accuracy > 0 {
		acc := fix.Accuracy
		r.Accuracy = &acc
	}

	if s.repo != nil {
		id, err := s.repo.Insert(ctx, *r)
		if err != nil {
			// The in-memory region stays the source of truth
			metrics.PersistFailuresTotal.WithLabelValues("region").Inc()
			s.logger.Error("region_insert_failed", "lat", r.Latitude, "lon", r.Longitude, "err", err)
		} else {
			r.ID = &id
		}
	}

	s.regions = append(s.regions, r)
	s.trimLocked()
	return r, s.generation
}

// trimLocked keeps the newest maxRegionsInMemory regions
func (s *Store) trimLocked() {
	limit := s.settings.MaxRegionsInMemory
	if limit <= 0 || len(s.regions) <= limit {
		return
	}
	drop := len(s.regions) - limit
	kept := make([]*models.VisitedRegion, limit)
	copy(kept, s.regions[drop:])
	s.regions = kept
	s.logger.Debug("regions_trimmed", "dropped", drop, "kept", limit)
}

func (s *Store) finish(out Outcome) {
	metrics.RegionsTotal.WithLabelValues(out.Kind.String()).Inc()
	s.mu.Lock()
	metrics.RegionsInMemory.Set(float64(len(s.regions)))
	s.mu.Unlock()

	if s.publisher == nil || out.Region == nil {
		return
	}
	switch out.Kind {
	case Created:
		s.publisher.Publish(events.NewRegionEvent(events.RegionCreated, *out.Region))
	case Updated:
		s.publisher.Publish(events.NewRegionEvent(events.RegionUpdated, *out.Region))
	}
}

func (s *Store) applyEnrichment(ctx context.Context, gen uint64, r *models.VisitedRegion, enriched models.VisitedRegion) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}

	models.Place{
		City:        enriched.City,
		District:    enriched.District,
		Country:     enriched.Country,
		CountryCode: enriched.CountryCode,
		POIName:     enriched.POIName,
		POICategory: enriched.POICategory,
	}.ApplyTo(r)

	if s.repo != nil {
		if r.ID != nil {
			if err := s.repo.Update(ctx, *r); err != nil {
				metrics.PersistFailuresTotal.WithLabelValues("region").Inc()
				s.logger.Error("region_enrichment_persist_failed", "id", *r.ID, "err", err)
			}
		} else if id, err := s.repo.Insert(ctx, *r); err == nil {
			r.ID = &id
		} else {
			metrics.PersistFailuresTotal.WithLabelValues("region").Inc()
			s.logger.Error("region_enrichment_persist_failed", "err", err)
		}
	}

	snapshot := r.Clone()
	var discovered []events.Event
	if markSeen(s.seenCities, r.City) {
		discovered = append(discovered, events.NewDiscoveryEvent(events.CityDiscovered, r.City, snapshot))
	}
	if markSeen(s.seenDistricts, r.District) {
		discovered = append(discovered, events.NewDiscoveryEvent(events.DistrictDiscovered, r.District, snapshot))
	}
	if markSeen(s.seenCountries, r.Country) {
		discovered = append(discovered, events.NewDiscoveryEvent(events.CountryDiscovered, r.Country, snapshot))
	}
	s.mu.Unlock()

	s.logger.Debug("region_enriched", "city", snapshot.City, "district", snapshot.District, "country", snapshot.Country)
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(events.NewRegionEvent(events.RegionEnriched, snapshot))
	for _, e := range discovered {
		s.publisher.Publish(e)
	}
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// markSeen adds name to the set and reports whether it was new
func markSeen(set map[string]struct{}, name string) bool {
	k := nameKey(name)
	if k == "" {
		return false
	}
	if _, ok := set[k]; ok {
		return false
	}
	set[k] = struct{}{}
	return true
}

// Load hydrates memory and the seen-name sets from the durable store
func (s *Store) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	rows, err := s.repo.FetchAll(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.regions = make([]*models.VisitedRegion, 0, len(rows))
	for i := range rows {
		r := rows[i].Clone()
		s.regions = append(s.regions, &r)
		markSeen(s.seenCities, r.City)
		markSeen(s.seenDistricts, r.District)
		markSeen(s.seenCountries, r.Country)
	}
	s.trimLocked()
	metrics.RegionsInMemory.Set(float64(len(s.regions)))
	s.logger.Info("regions_loaded", "stored", len(rows), "in_memory", len(s.regions))
	return nil
}

// Regions returns a snapshot of the in-memory regions, oldest first
func (s *Store) Regions() []models.VisitedRegion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.VisitedRegion, len(s.regions))
	for i, r := range s.regions {
		out[i] = r.Clone()
	}
	return out
}

// Count returns the number of in-memory regions
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.regions)
}

// Stats returns region and discovery counts
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{
		Regions:   len(s.regions),
		Cities:    len(s.seenCities),
		Districts: len(s.seenDistricts),
		Countries: len(s.seenCountries),
	}
	visits := make([]float64, 0, len(s.regions))
	var accuracy []float64
	for _, r := range s.regions {
		if r.IsEnriched() {
			st.Enriched++
		}
		visits = append(visits, float64(r.VisitCount))
		if r.Accuracy != nil {
			accuracy = append(accuracy, *r.Accuracy)
		}
	}
	st.VisitCount = stats.Summarize(visits)
	st.Accuracy = stats.Summarize(accuracy)
	return st
}

// Settings returns the active settings
func (s *Store) Settings() config.Exploration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// ApplySettings swaps radii and limits. Existing regions keep their radius.
func (s *Store) ApplySettings(settings config.Exploration) {
	settings.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.trimLocked()
}

// Reset clears every region in memory and in the durable store
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.regions = nil
	s.generation++
	s.seenCities = make(map[string]struct{})
	s.seenDistricts = make(map[string]struct{})
	s.seenCountries = make(map[string]struct{})
	s.mu.Unlock()

	metrics.RegionsInMemory.Set(0)
	if s.repo == nil {
		return nil
	}
	return s.repo.DeleteAll(ctx)
}
