// Package calculator maps a region history and a parameter bag to an integer
// achievement progress value.
package calculator

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/badursun/Roqua-sub000/internal/models"
)

// Calculator names
const (
	Milestone      = "milestone"
	City           = "city"
	District       = "district"
	Country        = "country"
	Area           = "area"
	Percentage     = "percentage"
	DailyStreak    = "daily_streak"
	WeekendStreak  = "weekend_streak"
	ReligiousVisit = "religious_visit"
	MosqueVisit    = "mosque_visit"
	ChurchVisit    = "church_visit"
	MultiReligion  = "multi_religion"
	POI            = "poi"
	Default        = "default"
)

// Calculator derives progress from regions. Implementations are pure and
// return 0 instead of failing on missing or malformed params.
type Calculator interface {
	Calculate(regions []models.VisitedRegion, params models.Params) int
}

// Func adapts a function to the Calculator interface
type Func func(regions []models.VisitedRegion, params models.Params) int

// Calculate calls f
func (f Func) Calculate(regions []models.VisitedRegion, params models.Params) int {
	return f(regions, params)
}

// PercentageSource provides the current coverage percentage
type PercentageSource interface {
	Percentage() float64
}

// Registry resolves calculator names. Unknown names resolve to Default.
type Registry struct {
	mu       sync.RWMutex
	calcs    map[string]Calculator
	fallback Calculator
	logger   *slog.Logger
}

// NewRegistry creates a registry holding every built-in calculator
func NewRegistry(coverage PercentageSource, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		calcs:    make(map[string]Calculator),
		fallback: Func(zero),
		logger:   logger,
	}

	r.Register(Milestone, Func(milestone))
	r.Register(City, Func(city))
	r.Register(District, Func(district))
	r.Register(Country, Func(country))
	r.Register(Area, Func(area))
	r.Register(Percentage, &PercentageCalculator{Source: coverage})
	r.Register(DailyStreak, &DailyStreakCalculator{})
	r.Register(WeekendStreak, &WeekendStreakCalculator{})
	r.Register(ReligiousVisit, &ReligiousCalculator{})
	r.Register(MosqueVisit, &ReligiousCalculator{Religions: []string{Mosque}})
	r.Register(ChurchVisit, &ReligiousCalculator{Religions: []string{Church}})
	r.Register(MultiReligion, Func(multiReligion))
	r.Register(POI, Func(poi))
	r.Register(Default, r.fallback)

	return r
}

// Register adds or replaces a calculator
func (r *Registry) Register(name string, c Calculator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calcs[name] = c
}

// Has reports whether name is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.calcs[name]
	return ok
}

// Get returns the named calculator or the default one
func (r *Registry) Get(name string) Calculator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.calcs[name]; ok {
		return c
	}
	return r.fallback
}

// Names returns the registered calculator names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.calcs))
	for n := range r.calcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Calculate runs the named calculator. A panicking calculator yields 0.
func (r *Registry) Calculate(name string, regions []models.VisitedRegion, params models.Params) (progress int) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("calculator_panic", "calculator", name, "panic", rec)
			progress = 0
		}
	}()
	progress = r.Get(name).Calculate(regions, params)
	if progress < 0 {
		return 0
	}
	return progress
}

func zero([]models.VisitedRegion, models.Params) int { return 0 }
