// Package events is the typed publish/subscribe channel that decouples
// discovery events from the components reacting to them.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/badursun/Roqua-sub000/internal/models"
)

// Family groups event types so subscribers can register for a subset
type Family int

const (
	FamilyLocation Family = iota
	FamilyDiscovery
	FamilyCoverage
)

func (f Family) String() string {
	switch f {
	case FamilyLocation:
		return "location"
	case FamilyDiscovery:
		return "discovery"
	case FamilyCoverage:
		return "coverage"
	default:
		return "unknown"
	}
}

// Type identifies a single kind of event
type Type string

const (
	RegionCreated  Type = "region.created"
	RegionUpdated  Type = "region.updated"
	RegionEnriched Type = "region.enriched"

	CityDiscovered     Type = "discovery.city"
	DistrictDiscovered Type = "discovery.district"
	CountryDiscovered  Type = "discovery.country"

	AchievementUnlocked Type = "achievement.unlocked"

	PercentageChanged Type = "coverage.percentage_changed"
)

// Family returns the family an event type belongs to
func (t Type) Family() Family {
	switch t {
	case RegionCreated, RegionUpdated:
		return FamilyLocation
	case PercentageChanged:
		return FamilyCoverage
	default:
		return FamilyDiscovery
	}
}

// Event is an immutable notification. Payload fields are populated
// according to Type; unused fields are left at their zero value.
type Event struct {
	ID   string    `json:"id"`
	Type Type      `json:"type"`
	At   time.Time `json:"at"`

	Region *models.VisitedRegion `json:"region,omitempty"`
	Name   string                `json:"name,omitempty"` // discovered city/district/country

	OldPercentage float64 `json:"oldPercentage,omitempty"`
	NewPercentage float64 `json:"newPercentage,omitempty"`

	Achievement *models.Achievement         `json:"achievement,omitempty"`
	Progress    *models.AchievementProgress `json:"progress,omitempty"`
}

func newEvent(t Type) Event {
	return Event{ID: uuid.NewString(), Type: t, At: time.Now()}
}

// NewRegionEvent snapshots the region into a location or enrichment event
func NewRegionEvent(t Type, region models.VisitedRegion) Event {
	e := newEvent(t)
	r := region.Clone()
	e.Region = &r
	return e
}

// NewDiscoveryEvent reports a city, district or country seen for the first time
func NewDiscoveryEvent(t Type, name string, region models.VisitedRegion) Event {
	e := NewRegionEvent(t, region)
	e.Name = name
	return e
}

// NewPercentageEvent reports a coverage percentage change
func NewPercentageEvent(oldPct, newPct float64) Event {
	e := newEvent(PercentageChanged)
	e.OldPercentage = oldPct
	e.NewPercentage = newPct
	return e
}

// NewUnlockEvent reports an achievement unlock
func NewUnlockEvent(a models.Achievement, p models.AchievementProgress) Event {
	e := newEvent(AchievementUnlocked)
	e.Achievement = &a
	if p.UnlockedAt != nil {
		t := *p.UnlockedAt
		p.UnlockedAt = &t
	}
	e.Progress = &p
	return e
}
