package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"school_transport/internal/models"
)

// TripLogFilter narrows ListTripLogs. Zero fields do not filter.
type TripLogFilter struct {
	CardID    string
	StudentID uint
	RouteID   uint
	Status    string
	Limit     int
}

// AppendTripLog stores a new trip log. Logs are never updated afterwards.
func (s *Store) AppendTripLog(ctx context.Context, log *models.TripLog) error {
	if log.EventID == "" {
		log.EventID = uuid.NewString()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(log).Error
}

// ListTripLogs returns logs newest first.
func (s *Store) ListTripLogs(ctx context.Context, f TripLogFilter) ([]models.TripLog, error) {
	q := s.db.WithContext(ctx).Preload("Student").Order("timestamp DESC, id DESC")
	if f.CardID != "" {
		q = q.Where("card_id = ?", f.CardID)
	}
	if f.StudentID != 0 {
		q = q.Where("student_id = ?", f.StudentID)
	}
	if f.RouteID != 0 {
		q = q.Where("route_id = ?", f.RouteID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var logs []models.TripLog
	err := q.Find(&logs).Error
	return logs, err
}
