package models

import (
	"time"

	"gorm.io/gorm"
)

// Card statuses
const (
	CardStatusActive  = "active"
	CardStatusLost    = "lost"
	CardStatusExpired = "expired"
)

// StudentCard maps an RFID card UID to a student.
type StudentCard struct {
	gorm.Model

	CardID     string    `json:"card_id" gorm:"uniqueIndex;not null" binding:"required"`
	StudentID  uint      `json:"student_id" gorm:"index" binding:"required"`
	Student    Student   `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Active     bool      `json:"active"`
	IssuedDate time.Time `json:"issued_date"`
	Status     string    `json:"status" gorm:"default:active"`
}

// ValidCardStatus reports whether status is one of the known card statuses.
func ValidCardStatus(status string) bool {
	switch status {
	case CardStatusActive, CardStatusLost, CardStatusExpired:
		return true
	}
	return false
}
