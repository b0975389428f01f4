package calculator

import (
	"testing"
	"time"

	"github.com/badursun/Roqua-sub000/internal/logger"
	"github.com/badursun/Roqua-sub000/internal/models"
)

type fixedPercentage float64

func (f fixedPercentage) Percentage() float64 { return float64(f) }

func newTestRegistry(pct float64) *Registry {
	return NewRegistry(fixedPercentage(pct), logger.Discard())
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func regionOn(t time.Time) models.VisitedRegion {
	return models.VisitedRegion{Latitude: 41, Longitude: 29, Radius: 150, VisitCount: 1, FirstVisitAt: t}
}

func TestMilestone(t *testing.T) {
	r := newTestRegistry(0)
	regions := []models.VisitedRegion{regionOn(day(2024, 1, 1)), regionOn(day(2024, 1, 2))}
	if got := r.Calculate(Milestone, regions, nil); got != 2 {
		t.Errorf("milestone = %d, want 2", got)
	}
}

func TestGeographicCalculators(t *testing.T) {
	r := newTestRegistry(0)
	regions := []models.VisitedRegion{
		{City: "İstanbul", District: "Fatih", Country: "Türkiye"},
		{City: "istanbul", District: "Beyoğlu", Country: "Türkiye"},
		{City: "Ankara", District: "Çankaya", Country: "türkiye"},
		{City: "Paris", District: "", Country: "France"},
		{},
	}

	tests := []struct {
		name   string
		calc   string
		params models.Params
		want   int
	}{
		{"city substring", City, models.Params{"cityName": models.StringValue("istanbul")}, 2},
		{"city without name", City, nil, 0},
		{"city with number name", City, models.Params{"cityName": models.NumberValue(3)}, 0},
		{"district distinct", District, nil, 3},
		{"country distinct", Country, nil, 2},
		{"country ignores params", Country, models.Params{"countryName": models.StringValue("France")}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Calculate(tt.calc, regions, tt.params); got != tt.want {
				t.Errorf("%s = %d, want %d", tt.calc, got, tt.want)
			}
		})
	}
}

func TestAreaCalculator(t *testing.T) {
	r := newTestRegistry(0)
	regions := []models.VisitedRegion{{Radius: 100}, {Radius: 200}}
	if got := r.Calculate(Area, regions, nil); got != 157079 {
		t.Errorf("area = %d, want 157079", got)
	}

	precomputed := 1000.0
	regions = append(regions, models.VisitedRegion{Radius: 5000, Area: &precomputed})
	if got := r.Calculate(Area, regions, nil); got != 158079 {
		t.Errorf("area with precomputed = %d, want 158079", got)
	}
}

func TestPercentageCalculator(t *testing.T) {
	tests := []struct {
		name   string
		pct    float64
		params models.Params
		want   int
	}{
		{"default multiplier", 0.0012, nil, 1},
		{"explicit multiplier", 0.0012, models.Params{"multiplier": models.NumberValue(10000)}, 12},
		{"string multiplier", 0.5, models.Params{"multiplier": models.StringValue("100")}, 50},
		{"invalid multiplier falls back", 0.0012, models.Params{"multiplier": models.BoolValue(true)}, 1},
		{"zero coverage", 0, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry(tt.pct)
			if got := r.Calculate(Percentage, nil, tt.params); got != tt.want {
				t.Errorf("percentage = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPercentageWithoutSource(t *testing.T) {
	r := NewRegistry(nil, logger.Discard())
	if got := r.Calculate(Percentage, nil, nil); got != 0 {
		t.Errorf("percentage = %d", got)
	}
}

func TestDailyStreak(t *testing.T) {
	calc := &DailyStreakCalculator{Location: time.UTC}
	var regions []models.VisitedRegion
	for _, d := range []int{1, 2, 3, 5, 6, 7} {
		regions = append(regions, regionOn(day(2024, 1, d)))
	}
	// same-day repeat neither extends nor resets
	regions = append(regions, regionOn(day(2024, 1, 6).Add(5*time.Hour)))

	if got := calc.Calculate(regions, nil); got != 3 {
		t.Errorf("daily streak = %d, want 3", got)
	}
	if got := calc.Calculate(nil, nil); got != 0 {
		t.Errorf("empty streak = %d", got)
	}
}

func TestDailyStreakAcrossMonthBoundary(t *testing.T) {
	calc := &DailyStreakCalculator{Location: time.UTC}
	regions := []models.VisitedRegion{
		regionOn(day(2024, 2, 28)),
		regionOn(day(2024, 2, 29)),
		regionOn(day(2024, 3, 1)),
		regionOn(day(2024, 3, 2)),
	}
	if got := calc.Calculate(regions, nil); got != 4 {
		t.Errorf("streak = %d, want 4", got)
	}
}

func TestWeekendStreak(t *testing.T) {
	calc := &WeekendStreakCalculator{Location: time.UTC}
	regions := []models.VisitedRegion{
		regionOn(day(2024, 1, 6)),  // Sat, week 1
		regionOn(day(2024, 1, 7)),  // Sun, week 1
		regionOn(day(2024, 1, 14)), // Sun, week 2
		regionOn(day(2024, 1, 20)), // Sat, week 3
		regionOn(day(2024, 1, 24)), // Wed, ignored
		regionOn(day(2024, 2, 3)),  // Sat, week 5
	}
	if got := calc.Calculate(regions, nil); got != 3 {
		t.Errorf("weekend streak = %d, want 3", got)
	}
}

func TestWeekendStreakAcrossYearBoundary(t *testing.T) {
	calc := &WeekendStreakCalculator{Location: time.UTC}
	regions := []models.VisitedRegion{
		regionOn(day(2023, 12, 30)), // Sat, ISO 2023-W52
		regionOn(day(2024, 1, 6)),   // Sat, ISO 2024-W01
	}
	if got := calc.Calculate(regions, nil); got != 2 {
		t.Errorf("weekend streak = %d, want 2", got)
	}
}

func TestReligiousCalculators(t *testing.T) {
	r := newTestRegistry(0)
	regions := []models.VisitedRegion{
		{POIName: "Süleymaniye Camii", VisitCount: 3, Geohash: "a"},
		{POIName: "SÜLEYMANİYE CAMİİ", VisitCount: 1, Geohash: "b"},
		{POIName: "Hagia Sophia", POICategory: "mosque", VisitCount: 2, Geohash: "c"},
		{POIName: "St. Antoine Church", VisitCount: 1, Geohash: "d"},
		{POIName: "Notre-Dame", POICategory: "cathédrale", VisitCount: 4, Geohash: "e"},
		{POIName: "Neve Shalom Sinagogu", VisitCount: 1, Geohash: "f"},
		{POIName: "Grand Bazaar", POICategory: "marketplace", VisitCount: 9, Geohash: "g"},
	}

	tests := []struct {
		name   string
		calc   string
		params models.Params
		want   int
	}{
		{"religious any", ReligiousVisit, nil, 6},
		{"religious total", ReligiousVisit, models.Params{"visitType": models.StringValue("total")}, 12},
		{"religious restricted", ReligiousVisit, models.Params{"religion": models.StringValue("church")}, 2},
		{"mosque any", MosqueVisit, nil, 3},
		{"mosque unique", MosqueVisit, models.Params{"visitType": models.StringValue("unique")}, 2},
		{"mosque total", MosqueVisit, models.Params{"visitType": models.StringValue("total")}, 6},
		{"church any", ChurchVisit, nil, 2},
		{"church ignores religion param", ChurchVisit, models.Params{"religion": models.StringValue("mosque")}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Calculate(tt.calc, regions, tt.params); got != tt.want {
				t.Errorf("%s = %d, want %d", tt.calc, got, tt.want)
			}
		})
	}
}

func TestMultiReligion(t *testing.T) {
	r := newTestRegistry(0)
	regions := []models.VisitedRegion{
		{POIName: "Blue Mosque"},
		{POIName: "Kirche St. Peter"},
	}
	if got := r.Calculate(MultiReligion, regions, nil); got != 2 {
		t.Errorf("count = %d, want 2", got)
	}
	if got := r.Calculate(MultiReligion, regions, models.Params{"mode": models.StringValue("all")}); got != 0 {
		t.Errorf("all = %d, want 0", got)
	}
	params := models.Params{
		"mode":              models.StringValue("all"),
		"requiredReligions": models.StringsValue("mosque", "church"),
	}
	if got := r.Calculate(MultiReligion, regions, params); got != 1 {
		t.Errorf("all with custom set = %d, want 1", got)
	}
}

func TestPOICalculator(t *testing.T) {
	r := newTestRegistry(0)
	regions := []models.VisitedRegion{
		{POIName: "Topkapı Palace", POICategory: "museum", VisitCount: 2},
		{POIName: "Istanbul Modern", POICategory: "Museum", VisitCount: 1},
		{POIName: "Galata Tower", POICategory: "attraction", VisitCount: 1},
		{POIName: "Central Park", POICategory: "park", VisitCount: 1},
	}
	tests := []struct {
		name   string
		params models.Params
		want   int
	}{
		{"no filter", nil, 0},
		{"category", models.Params{"category": models.StringValue("museum")}, 2},
		{"categories total", models.Params{"categories": models.StringsValue("museum", "park"), "visitType": models.StringValue("total")}, 4},
		{"keywords", models.Params{"keywords": models.StringsValue("tower")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Calculate(POI, regions, tt.params); got != tt.want {
				t.Errorf("poi = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestUnknownCalculatorReturnsZero(t *testing.T) {
	r := newTestRegistry(50)
	regions := []models.VisitedRegion{regionOn(day(2024, 1, 1))}
	if got := r.Calculate("does_not_exist", regions, nil); got != 0 {
		t.Errorf("unknown = %d, want 0", got)
	}
	if r.Has("does_not_exist") {
		t.Error("unknown calculator should not be registered")
	}
}

func TestPanickingCalculatorReturnsZero(t *testing.T) {
	r := newTestRegistry(0)
	r.Register("boom", Func(func([]models.VisitedRegion, models.Params) int { panic("bad params") }))
	if got := r.Calculate("boom", nil, nil); got != 0 {
		t.Errorf("panicking calculator = %d, want 0", got)
	}
}

func TestNamesIncludesCatalog(t *testing.T) {
	names := newTestRegistry(0).Names()
	if len(names) != 14 {
		t.Errorf("registered %d calculators, want 14: %v", len(names), names)
	}
}
