package models

import "time"

// Rarity tiers
const (
	RarityCommon    = "common"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

// Achievement categories
const (
	CategoryFirstSteps  = "first_steps"
	CategoryExploration = "exploration"
	CategoryCity        = "city"
	CategoryDistrict    = "district"
	CategoryCountry     = "country"
	CategoryArea        = "area"
	CategoryPercentage  = "percentage"
	CategoryStreak      = "streak"
	CategoryReligious   = "religious"
	CategoryPOI         = "poi"
)

// Achievement is a static achievement definition
type Achievement struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Target      int    `json:"target"`
	Hidden      bool   `json:"isHidden"`
	Rarity      string `json:"rarity"`
	Calculator  string `json:"calculator"`
	Params      Params `json:"params,omitempty"`
}

// IsValidRarity returns true if the rarity is a known tier
func IsValidRarity(r string) bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	default:
		return false
	}
}

// AchievementProgress is the derived, mutable progress of one achievement
type AchievementProgress struct {
	AchievementID   string     `json:"achievementId" db:"achievement_id"`
	CurrentProgress int        `json:"currentProgress" db:"current_progress"`
	TargetProgress  int        `json:"targetProgress" db:"target_progress"`
	IsUnlocked      bool       `json:"isUnlocked" db:"is_unlocked"`
	UnlockedAt      *time.Time `json:"unlockedAt,omitempty" db:"unlocked_at"`
	LastUpdated     time.Time  `json:"lastUpdated" db:"last_updated"`
}

// Percent returns the completion percentage clamped to 0-100
func (p *AchievementProgress) Percent() float64 {
	if p.TargetProgress <= 0 {
		return 0
	}
	pct := float64(p.CurrentProgress) / float64(p.TargetProgress) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// Status values of the per-achievement state machine
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusUnlocked   = "unlocked"
)

// Status returns the state machine position of this progress record
func (p *AchievementProgress) Status() string {
	switch {
	case p.IsUnlocked:
		return StatusUnlocked
	case p.CurrentProgress > 0:
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

// RecentUnlock records one unlock event for the recent-unlocks list
type RecentUnlock struct {
	ID            string    `json:"id" db:"id"`
	AchievementID string    `json:"achievementId" db:"achievement_id"`
	Title         string    `json:"title" db:"title"`
	Rarity        string    `json:"rarity" db:"rarity"`
	UnlockedAt    time.Time `json:"unlockedAt" db:"unlocked_at"`
}
