package calculator

import (
	"math"
	"strings"

	"github.com/badursun/Roqua-sub000/internal/models"
)

// DefaultPercentageMultiplier turns sub-percent coverage into integer progress
const DefaultPercentageMultiplier = 1000

func milestone(regions []models.VisitedRegion, _ models.Params) int {
	return len(regions)
}

// city counts regions whose city contains params.cityName
func city(regions []models.VisitedRegion, params models.Params) int {
	name, ok := params.String("cityName")
	if !ok {
		return 0
	}
	want := normalize(name)
	if want == "" {
		return 0
	}
	n := 0
	for i := range regions {
		if strings.Contains(normalize(regions[i].City), want) {
			n++
		}
	}
	return n
}

func district(regions []models.VisitedRegion, _ models.Params) int {
	return distinct(regions, func(r *models.VisitedRegion) string { return r.District })
}

func country(regions []models.VisitedRegion, _ models.Params) int {
	return distinct(regions, func(r *models.VisitedRegion) string { return r.Country })
}

func distinct(regions []models.VisitedRegion, field func(*models.VisitedRegion) string) int {
	seen := make(map[string]struct{})
	for i := range regions {
		if k := normalize(field(&regions[i])); k != "" {
			seen[k] = struct{}{}
		}
	}
	return len(seen)
}

func area(regions []models.VisitedRegion, _ models.Params) int {
	total := 0.0
	for i := range regions {
		total += regions[i].AreaSquareMeters()
	}
	return int(math.Floor(total))
}

// PercentageCalculator returns floor(coverage% * multiplier)
type PercentageCalculator struct {
	Source PercentageSource
}

// Calculate implements Calculator
func (c *PercentageCalculator) Calculate(_ []models.VisitedRegion, params models.Params) int {
	if c.Source == nil {
		return 0
	}
	multiplier, ok := params.Number("multiplier")
	if !ok || multiplier <= 0 {
		multiplier = DefaultPercentageMultiplier
	}
	// Small epsilon so 0.0012*1000 does not land on 0.99999
	v := math.Floor(c.Source.Percentage()*multiplier + 1e-9)
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}

// normalize lowercases and drops the combining dot left by lowercasing İ
func normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "\u0307", "")
}
