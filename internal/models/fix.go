package models

import "time"

// PositionFix represents a raw position sample delivered by the device
type PositionFix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"` // Horizontal accuracy in meters
	Timestamp time.Time `json:"timestamp"`

	Altitude *float64 `json:"altitude,omitempty"`
	Speed    *float64 `json:"speed,omitempty"` // m/s
}
