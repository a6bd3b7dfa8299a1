package models

import (
	"time"

	"gorm.io/gorm"

	"school_transport/internal/geocoding"
)

// Student is a pupil who may ride one or more routes.
type Student struct {
	gorm.Model

	Name         string  `json:"name" binding:"required"`
	AdmissionNo  string  `json:"admission_no" gorm:"uniqueIndex" binding:"required"`
	HouseAddress string  `json:"house_address" binding:"required"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`

	GeocodeAttemptedAt *time.Time `json:"geocode_attempted_at,omitempty" gorm:"index"`
}

// Located reports whether the home address has been geocoded.
func (s Student) Located() bool {
	return IsLocated(s.Latitude, s.Longitude)
}

func (s *Student) GeocodeAddress() geocoding.Address {
	return geocoding.Address{Street: s.HouseAddress}
}

func (s *Student) SetCoordinates(lat, lon float64) {
	s.Latitude, s.Longitude = lat, lon
}
