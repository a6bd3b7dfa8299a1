package models

import (
	"time"

	"gorm.io/gorm"

	"school_transport/internal/geocoding"
)

// DefaultStopSequence is what the API assigns when a stop is posted without a sequence.
// An explicit 0 is kept as is.
const DefaultStopSequence = 10

// Stop is a pickup or dropoff point along a route.
// Latitude/Longitude of 0.0 mean the stop has not been geocoded yet.
// ArrivalTime and DepartureTime are fractional hours (14.30 is 14:30).
type Stop struct {
	gorm.Model

	Name          string  `json:"name" binding:"required"`
	Sequence      int     `json:"sequence" gorm:"index"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	ArrivalTime   float64 `json:"arrival_time"`
	DepartureTime float64 `json:"departure_time"`

	// GeocodeAttemptedAt is when the last lookup ran, nil until the first one.
	GeocodeAttemptedAt *time.Time `json:"geocode_attempted_at,omitempty" gorm:"index"`

	// Foreign key to route
	RouteID uint `json:"route_id" gorm:"index;not null"`
}

// Located reports whether the stop has usable coordinates.
func (s Stop) Located() bool {
	return IsLocated(s.Latitude, s.Longitude)
}

// GeocodeAddress uses the stop name as the street to look up.
func (s *Stop) GeocodeAddress() geocoding.Address {
	return geocoding.Address{Street: s.Name}
}

// SetCoordinates sets both coordinates at once.
func (s *Stop) SetCoordinates(lat, lon float64) {
	s.Latitude, s.Longitude = lat, lon
}

// IsLocated treats 0.0 on either axis as "not geocoded".
func IsLocated(lat, lon float64) bool {
	return lat != 0.0 && lon != 0.0
}
