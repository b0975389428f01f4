package spatial

import (
	"math"
	"testing"
)

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want, tolerance        float64
	}{
		{"same point", 41.0082, 28.9784, 41.0082, 28.9784, 0, 0.001},
		{"one degree latitude", 0, 0, 1, 0, 111195, 50},
		{"istanbul to ankara", 41.0082, 28.9784, 39.9334, 32.8597, 350000, 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("HaversineDistance = %f, want %f±%f", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestMetersToDegrees(t *testing.T) {
	if got := MetersToDegrees(111000); got != 1 {
		t.Errorf("MetersToDegrees(111000) = %f", got)
	}
	if got := DegreesToMeters(0.5); got != 55500 {
		t.Errorf("DegreesToMeters(0.5) = %f", got)
	}
}

func TestNormalizeLongitude(t *testing.T) {
	cases := map[float64]float64{0: 0, 180: -180, 190: -170, -190: 170, 359: -1}
	for in, want := range cases {
		if got := NormalizeLongitude(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("NormalizeLongitude(%f) = %f, want %f", in, got, want)
		}
	}
}

func TestGeohashRoundTrip(t *testing.T) {
	lat, lon := 41.0082, 28.9784
	hash := EncodeGeohash(lat, lon, RegionGeohashPrecision)
	if len(hash) != RegionGeohashPrecision {
		t.Fatalf("len(hash) = %d", len(hash))
	}
	if hash[:3] != "sxk" {
		t.Errorf("unexpected geohash prefix %q", hash)
	}
	dLat, dLon := DecodeGeohash(hash)
	if math.Abs(dLat-lat) > 0.001 || math.Abs(dLon-lon) > 0.001 {
		t.Errorf("decoded (%f,%f) too far from (%f,%f)", dLat, dLon, lat, lon)
	}
}
