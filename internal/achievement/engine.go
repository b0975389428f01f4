// Package achievement holds achievement definitions and per-achievement
// progress, detects unlocks and persists progress in debounced batches.
package achievement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/badursun/Roqua-sub000/internal/events"
	"github.com/badursun/Roqua-sub000/internal/metrics"
	"github.com/badursun/Roqua-sub000/internal/models"
	"github.com/badursun/Roqua-sub000/internal/worker"
)

const (
	// SaveDebounce is the quiet period before progress is written
	SaveDebounce = 2 * time.Second
	// MaxRecentUnlocks bounds the recent unlock list
	MaxRecentUnlocks = 20
)

// ProgressStore persists progress records and recent unlocks
type ProgressStore interface {
	SaveProgress(ctx context.Context, progress []models.AchievementProgress) error
	LoadProgress(ctx context.Context) ([]models.AchievementProgress, error)
	SaveRecentUnlocks(ctx context.Context, unlocks []models.RecentUnlock) error
	LoadRecentUnlocks(ctx context.Context) ([]models.RecentUnlock, error)
	DeleteAll(ctx context.Context) error
}

// RegionSource provides the region history calculators run on
type RegionSource interface {
	Regions() []models.VisitedRegion
}

// Calculators evaluates a named calculator
type Calculators interface {
	Calculate(name string, regions []models.VisitedRegion, params models.Params) int
}

// eventCategories ties event types to the categories they can move
var eventCategories = map[events.Type][]string{
	events.RegionCreated: {
		models.CategoryFirstSteps, models.CategoryExploration,
		models.CategoryArea, models.CategoryStreak,
	},
	events.RegionUpdated: {
		models.CategoryReligious, models.CategoryPOI,
	},
	events.RegionEnriched: {
		models.CategoryCity, models.CategoryDistrict, models.CategoryCountry,
		models.CategoryReligious, models.CategoryPOI,
	},
	events.CityDiscovered:     {models.CategoryCity},
	events.DistrictDiscovered: {models.CategoryDistrict},
	events.CountryDiscovered:  {models.CategoryCountry},
	events.PercentageChanged:  {models.CategoryPercentage},
}

// CategoriesFor returns the categories re-evaluated for an event type
func CategoriesFor(t events.Type) []string {
	return eventCategories[t]
}

// Stats summarises unlock state
type Stats struct {
	Total    int `json:"total"`
	Unlocked int `json:"unlocked"`
	Hidden   int `json:"hidden"`
}

// Engine is the achievement engine. All state is guarded by mu.
type Engine struct {
	mu       sync.Mutex
	catalog  []models.Achievement
	byID     map[string]int
	progress map[string]*models.AchievementProgress
	recent   []models.RecentUnlock // newest first

	regions   RegionSource
	calc      Calculators
	store     ProgressStore
	publisher events.Publisher
	saver     *worker.Debouncer

	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the clock used for unlock timestamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSaveDebounce overrides the persistence quiet period
func WithSaveDebounce(d time.Duration) Option {
	return func(e *Engine) {
		e.saver = worker.NewDebouncer("achievement_progress", d, e.save, e.logger)
	}
}

// NewEngine creates an engine. store and publisher may be nil.
func NewEngine(regions RegionSource, calc Calculators, store ProgressStore, publisher events.Publisher, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		byID:      make(map[string]int),
		progress:  make(map[string]*models.AchievementProgress),
		regions:   regions,
		calc:      calc,
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
	e.saver = worker.NewDebouncer("achievement_progress", SaveDebounce, e.save, logger)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Attach subscribes the engine to every event family of the bus
func (e *Engine) Attach(bus *events.Bus) *events.Subscription {
	return bus.Subscribe("achievement_engine", func(evt events.Event) {
		e.HandleEvent(context.Background(), evt)
	}, events.FamilyLocation, events.FamilyDiscovery, events.FamilyCoverage)
}

// HandleEvent re-evaluates the categories tied to the event type
func (e *Engine) HandleEvent(ctx context.Context, evt events.Event) []models.AchievementProgress {
	categories := CategoriesFor(evt.Type)
	if len(categories) == 0 {
		return nil
	}
	return e.Evaluate(ctx, categories...)
}

// RecomputeAll evaluates the full catalog
func (e *Engine) RecomputeAll(ctx context.Context) []models.AchievementProgress {
	return e.evaluate(ctx, nil)
}

// Evaluate recomputes achievements in the given categories and returns the
// progress of those unlocked by this call
func (e *Engine) Evaluate(ctx context.Context, categories ...string) []models.AchievementProgress {
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		set[c] = struct{}{}
	}
	return e.evaluate(ctx, set)
}

// evaluate runs calculators for achievements in categories; nil means all
func (e *Engine) evaluate(_ context.Context, categories map[string]struct{}) []models.AchievementProgress {
	// regions are read under mu so evaluations apply in snapshot order
	e.mu.Lock()
	var regions []models.VisitedRegion
	if e.regions != nil {
		regions = e.regions.Regions()
	}
	now := e.now()
	changed := false
	var unlocked []models.AchievementProgress
	var notify []events.Event
	for _, a := range e.catalog {
		if categories != nil {
			if _, ok := categories[a.Category]; !ok {
				continue
			}
		}
		value := e.calc.Calculate(a.Calculator, regions, a.Params)
		metrics.AchievementEvaluationsTotal.Inc()

		p, didChange, didUnlock := e.applyLocked(a, value, now)
		changed = changed || didChange
		if didUnlock {
			unlocked = append(unlocked, p)
			notify = append(notify, events.NewUnlockEvent(a, p))
			e.recordUnlockLocked(a, now)
		}
	}
	e.mu.Unlock()

	if changed {
		e.saver.Mark()
	}
	for _, evt := range notify {
		metrics.AchievementUnlocksTotal.WithLabelValues(evt.Achievement.Rarity).Inc()
		e.logger.Info("achievement_unlocked", "id", evt.Achievement.ID, "title", evt.Achievement.Title, "rarity", evt.Achievement.Rarity)
		if e.publisher != nil {
			e.publisher.Publish(evt)
		}
	}
	return unlocked
}

// applyLocked moves the state machine. UnlockedAt is set once and never
// cleared; later evaluations only refresh the displayed progress.
func (e *Engine) applyLocked(a models.Achievement, value int, now time.Time) (models.AchievementProgress, bool, bool) {
	p, ok := e.progress[a.ID]
	if !ok {
		p = &models.AchievementProgress{AchievementID: a.ID}
		e.progress[a.ID] = p
	}
	changed := !ok || p.CurrentProgress != value || p.TargetProgress != a.Target
	p.CurrentProgress = value
	p.TargetProgress = a.Target
	if changed {
		p.LastUpdated = now
	}

	unlocked := false
	if !p.IsUnlocked && value >= a.Target {
		p.IsUnlocked = true
		t := now
		p.UnlockedAt = &t
		p.LastUpdated = now
		changed = true
		unlocked = true
	}
	return copyProgress(*p), changed, unlocked
}

func (e *Engine) recordUnlockLocked(a models.Achievement, now time.Time) {
	u := models.RecentUnlock{
		ID:            uuid.NewString(),
		AchievementID: a.ID,
		Title:         a.Title,
		Rarity:        a.Rarity,
		UnlockedAt:    now,
	}
	e.recent = append([]models.RecentUnlock{u}, e.recent...)
	if len(e.recent) > MaxRecentUnlocks {
		e.recent = e.recent[:MaxRecentUnlocks]
	}
}

func copyProgress(p models.AchievementProgress) models.AchievementProgress {
	if p.UnlockedAt != nil {
		t := *p.UnlockedAt
		p.UnlockedAt = &t
	}
	return p
}

// save writes a snapshot of progress and recent unlocks
func (e *Engine) save(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	e.mu.Lock()
	progress := make([]models.AchievementProgress, 0, len(e.progress))
	for _, a := range e.catalog {
		if p, ok := e.progress[a.ID]; ok {
			progress = append(progress, copyProgress(*p))
		}
	}
	recent := append([]models.RecentUnlock(nil), e.recent...)
	e.mu.Unlock()

	err := e.store.SaveProgress(ctx, progress)
	if err == nil {
		err = e.store.SaveRecentUnlocks(ctx, recent)
	}
	if err != nil {
		metrics.ProgressFlushesTotal.WithLabelValues("fail").Inc()
		metrics.PersistFailuresTotal.WithLabelValues("progress").Inc()
		return fmt.Errorf("failed to save achievement progress: %w", err)
	}
	metrics.ProgressFlushesTotal.WithLabelValues("success").Inc()
	e.logger.Debug("achievement_progress_saved", "records", len(progress), "recent", len(recent))
	return nil
}

// Flush writes pending progress now
func (e *Engine) Flush(ctx context.Context) error {
	return e.saver.Flush(ctx)
}

// Load restores progress and recent unlocks from the store
func (e *Engine) Load(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	progress, err := e.store.LoadProgress(ctx)
	if err != nil {
		return fmt.Errorf("failed to load achievement progress: %w", err)
	}
	recent, err := e.store.LoadRecentUnlocks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load recent unlocks: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress = make(map[string]*models.AchievementProgress, len(progress))
	for i := range progress {
		p := copyProgress(progress[i])
		e.progress[p.AchievementID] = &p
	}
	if len(recent) > MaxRecentUnlocks {
		recent = recent[:MaxRecentUnlocks]
	}
	e.recent = recent
	e.logger.Info("achievement_progress_loaded", "records", len(progress), "recent", len(recent))
	return nil
}

// Reset clears progress and recent unlocks and cancels the pending write
func (e *Engine) Reset(ctx context.Context) error {
	// waits for a save that already copied the old state
	e.saver.Cancel()
	e.mu.Lock()
	e.progress = make(map[string]*models.AchievementProgress)
	e.recent = nil
	e.mu.Unlock()
	// drops writes marked by evaluations that ran before the clear
	e.saver.Cancel()

	if e.store == nil {
		return nil
	}
	if err := e.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to clear achievement progress: %w", err)
	}
	return nil
}

// Achievements returns the catalog in definition order
func (e *Engine) Achievements() []models.Achievement {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.Achievement(nil), e.catalog...)
}

// Achievement returns one definition
func (e *Engine) Achievement(id string) (models.Achievement, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.byID[id]
	if !ok {
		return models.Achievement{}, false
	}
	return e.catalog[i], true
}

// Progress returns the progress of one achievement. Unevaluated achievements
// report a NotStarted record.
func (e *Engine) Progress(id string) (models.AchievementProgress, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.byID[id]
	if !ok {
		return models.AchievementProgress{}, false
	}
	if p, ok := e.progress[id]; ok {
		return copyProgress(*p), true
	}
	return models.AchievementProgress{AchievementID: id, TargetProgress: e.catalog[i].Target}, true
}

// AllProgress returns progress for every catalog entry in definition order
func (e *Engine) AllProgress() []models.AchievementProgress {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.AchievementProgress, 0, len(e.catalog))
	for _, a := range e.catalog {
		if p, ok := e.progress[a.ID]; ok {
			out = append(out, copyProgress(*p))
		} else {
			out = append(out, models.AchievementProgress{AchievementID: a.ID, TargetProgress: a.Target})
		}
	}
	return out
}

// RecentUnlocks returns the recent unlocks, newest first
func (e *Engine) RecentUnlocks() []models.RecentUnlock {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.RecentUnlock(nil), e.recent...)
}

// Stats counts catalog entries and unlocks
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Stats{Total: len(e.catalog)}
	for _, a := range e.catalog {
		if a.Hidden {
			st.Hidden++
		}
		if p, ok := e.progress[a.ID]; ok && p.IsUnlocked {
			st.Unlocked++
		}
	}
	return st
}

// IsInvalid reports whether err is a definition error
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidAchievement)
}
