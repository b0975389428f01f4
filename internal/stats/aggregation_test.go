package stats

import (
	"math"
	"testing"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestQuantile(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	tests := []struct {
		q    float64
		want float64
	}{
		{0, 1},
		{0.5, 2.5},
		{1, 4},
		{-1, 1},
		{2, 4},
		{0.9, 3.7},
	}
	for _, tt := range tests {
		if got := Quantile(values, tt.q); !almost(got, tt.want) {
			t.Errorf("Quantile(%v) = %v, want %v", tt.q, got, tt.want)
		}
	}
	if values[0] != 4 {
		t.Error("input was modified")
	}
}

func TestSummarize(t *testing.T) {
	if s := Summarize(nil); s != (Summary{}) {
		t.Errorf("empty = %+v", s)
	}
	s := Summarize([]float64{1, 2, 3, 10})
	if s.Count != 4 || !almost(s.Mean, 4) || !almost(s.Median, 2.5) || s.Max != 10 {
		t.Errorf("summary = %+v", s)
	}
	if Median([]float64{5, 1, 3}) != 3 {
		t.Error("odd median")
	}
}
