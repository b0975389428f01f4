package models

import (
	"math"
	"time"
)

// VisitedRegion represents a circular footprint the user has occupied
type VisitedRegion struct {
	ID *int64 `json:"id,omitempty" db:"id"` // nil until persisted

	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
	Radius    float64 `json:"radius" db:"radius"` // meters

	FirstVisitAt time.Time  `json:"firstVisitAt" db:"first_visit_at"`
	LastVisitAt  *time.Time `json:"lastVisitAt,omitempty" db:"last_visit_at"`
	VisitCount   int        `json:"visitCount" db:"visit_count"`

	// Enrichment
	City        string `json:"city,omitempty" db:"city"`
	District    string `json:"district,omitempty" db:"district"`
	Country     string `json:"country,omitempty" db:"country"`
	CountryCode string `json:"countryCode,omitempty" db:"country_code"`
	POIName     string `json:"poiName,omitempty" db:"poi_name"`
	POICategory string `json:"poiCategory,omitempty" db:"poi_category"`

	Geohash  string   `json:"geohash,omitempty" db:"geohash"`   // precision 7
	Accuracy *float64 `json:"accuracy,omitempty" db:"accuracy"` // meters
	Area     *float64 `json:"area,omitempty" db:"area"`         // square meters, precomputed
}

// LastSeen returns the last visit time, falling back to the first visit
func (r *VisitedRegion) LastSeen() time.Time {
	if r.LastVisitAt != nil {
		return *r.LastVisitAt
	}
	return r.FirstVisitAt
}

// AreaSquareMeters returns the precomputed area or pi*r^2
func (r *VisitedRegion) AreaSquareMeters() float64 {
	if r.Area != nil {
		return *r.Area
	}
	return math.Pi * r.Radius * r.Radius
}

// IsEnriched reports whether reverse geocoding has populated any field
func (r *VisitedRegion) IsEnriched() bool {
	return r.City != "" || r.District != "" || r.Country != ""
}

// Clone returns a deep copy safe to hand to other goroutines
func (r VisitedRegion) Clone() VisitedRegion {
	c := r
	if r.ID != nil {
		id := *r.ID
		c.ID = &id
	}
	if r.LastVisitAt != nil {
		t := *r.LastVisitAt
		c.LastVisitAt = &t
	}
	if r.Accuracy != nil {
		a := *r.Accuracy
		c.Accuracy = &a
	}
	if r.Area != nil {
		a := *r.Area
		c.Area = &a
	}
	return c
}

// Place is the result of reverse geocoding a coordinate
type Place struct {
	City        string `json:"city,omitempty"`
	District    string `json:"district,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
	POIName     string `json:"poiName,omitempty"`
	POICategory string `json:"poiCategory,omitempty"`
}

// ApplyTo copies the non-empty place fields onto the region
func (p Place) ApplyTo(r *VisitedRegion) {
	if p.City != "" {
		r.City = p.City
	}
	if p.District != "" {
		r.District = p.District
	}
	if p.Country != "" {
		r.Country = p.Country
	}
	if p.CountryCode != "" {
		r.CountryCode = p.CountryCode
	}
	if p.POIName != "" {
		r.POIName = p.POIName
	}
	if p.POICategory != "" {
		r.POICategory = p.POICategory
	}
}
