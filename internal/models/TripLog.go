package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Event types
const (
	EventCheckIn  = "check_in"
	EventCheckOut = "check_out"
)

// Outcome statuses
const (
	TripStatusSuccess = "success"
	TripStatusDenied  = "denied"
	TripStatusError   = "error"
)

// ErrTripLogImmutable is returned when something tries to change a stored trip log.
var ErrTripLogImmutable = errors.New("trip logs are append-only")

// TripLog records a single check-in or check-out attempt, successful or not.
type TripLog struct {
	gorm.Model

	EventID   string    `json:"event_id" gorm:"uniqueIndex;size:36"`
	CardID    string    `json:"card_id" gorm:"index"` // kept even when the card is unknown
	StudentID *uint     `json:"student_id" gorm:"index"`
	Student   *Student  `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	RouteID   *uint     `json:"route_id" gorm:"index"`
	Timestamp time.Time `json:"timestamp" gorm:"index;not null"`
	GPSLat    float64   `json:"gps_lat"`
	GPSLon    float64   `json:"gps_lon"`
	EventType string    `json:"event_type" gorm:"default:check_in"`
	Status    string    `json:"status" gorm:"default:success"`
	Message   string    `json:"message"`
}

func (TripLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrTripLogImmutable
}

func (TripLog) BeforeDelete(tx *gorm.DB) error {
	return ErrTripLogImmutable
}
