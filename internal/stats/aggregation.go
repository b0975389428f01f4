// Package stats holds small descriptive statistics over float samples
package stats

import (
	"math"
	"sort"
)

// Summary describes a sample
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	Max    float64 `json:"max"`
}

// Summarize computes the summary of values. An empty sample is all zero.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	sorted := sortedCopy(values)
	return Summary{
		Count:  len(sorted),
		Mean:   Mean(sorted),
		Median: quantileSorted(sorted, 0.5),
		P90:    quantileSorted(sorted, 0.9),
		Max:    sorted[len(sorted)-1],
	}
}

// Mean calculates the arithmetic mean
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median calculates the median value
func Median(values []float64) float64 {
	return Quantile(values, 0.5)
}

// Quantile calculates the q-th quantile (0 <= q <= 1) with linear interpolation
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return quantileSorted(sortedCopy(values), q)
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}

func quantileSorted(sorted []float64, q float64) float64 {
	q = math.Max(0, math.Min(1, q))
	index := q * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
