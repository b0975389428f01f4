package spatial

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters

	// MetersPerDegree is the fixed spherical approximation used by the
	// coverage grid. It is intentionally not latitude-corrected.
	MetersPerDegree = 111000.0
)

// HaversineDistance calculates the great-circle distance between two points in meters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat1, lon1))
	p2 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat2, lon2))

	angle := s1.Angle(s2.ChordAngleBetweenPoints(p1, p2).Angle())
	return angle.Radians() * EarthRadiusMeters
}

// MetersToDegrees converts a distance to degrees using MetersPerDegree
func MetersToDegrees(meters float64) float64 {
	return meters / MetersPerDegree
}

// DegreesToMeters converts degrees to meters using MetersPerDegree
func DegreesToMeters(degrees float64) float64 {
	return degrees * MetersPerDegree
}

// NormalizeLongitude wraps a longitude into [-180, 180)
func NormalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// ClampLatitude limits a latitude to [-90, 90]
func ClampLatitude(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

// ValidCoordinate reports whether lat/lon are finite and in range
func ValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
