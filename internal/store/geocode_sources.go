package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"school_transport/internal/geocoding"
	"school_transport/internal/models"
)

// StopSource exposes stops to the geocoding service.
type StopSource struct{ db *gorm.DB }

// StudentSource exposes students to the geocoding service.
type StudentSource struct{ db *gorm.DB }

func (s *Store) StopSource() *StopSource       { return &StopSource{db: s.db} }
func (s *Store) StudentSource() *StudentSource { return &StudentSource{db: s.db} }

// pendingFirst pages records never tried before those tried longest ago, so
// addresses that never resolve do not hold the first page forever.
func pendingFirst(db *gorm.DB) *gorm.DB {
	return db.Order("geocode_attempted_at IS NOT NULL").Order("geocode_attempted_at").Order("id")
}

func (src *StopSource) Pending(ctx context.Context, limit int) ([]geocoding.Geocodable, error) {
	var stops []models.Stop
	err := src.db.WithContext(ctx).
		Where("(latitude = ? OR longitude = ?) AND name <> ?", 0, 0, "").
		Scopes(pendingFirst).
		Limit(limit).
		Find(&stops).Error
	if err != nil {
		return nil, err
	}
	return stopRecords(stops), nil
}

func (src *StopSource) Find(ctx context.Context, ids []uint) ([]geocoding.Geocodable, error) {
	var stops []models.Stop
	if err := src.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&stops).Error; err != nil {
		return nil, err
	}
	return stopRecords(stops), nil
}

// SaveCoordinates writes both coordinates, stamps the attempt and recomputes the stop's route.
func (src *StopSource) SaveCoordinates(ctx context.Context, rec geocoding.Geocodable) error {
	stop, ok := rec.(*models.Stop)
	if !ok {
		return fmt.Errorf("stop source cannot save %T", rec)
	}
	return src.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Stop{}).Where("id = ?", stop.ID).Updates(map[string]interface{}{
			"latitude":             stop.Latitude,
			"longitude":            stop.Longitude,
			"geocode_attempted_at": time.Now().UTC(),
		}).Error
		if err != nil {
			return err
		}
		return RecomputeRoute(tx, stop.RouteID)
	})
}

func stopRecords(stops []models.Stop) []geocoding.Geocodable {
	out := make([]geocoding.Geocodable, len(stops))
	for i := range stops {
		out[i] = &stops[i]
	}
	return out
}

func (src *StudentSource) Pending(ctx context.Context, limit int) ([]geocoding.Geocodable, error) {
	var students []models.Student
	err := src.db.WithContext(ctx).
		Where("(latitude = ? OR longitude = ?) AND house_address <> ?", 0, 0, "").
		Scopes(pendingFirst).
		Limit(limit).
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return studentRecords(students), nil
}

func (src *StudentSource) Find(ctx context.Context, ids []uint) ([]geocoding.Geocodable, error) {
	var students []models.Student
	if err := src.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&students).Error; err != nil {
		return nil, err
	}
	return studentRecords(students), nil
}

func (src *StudentSource) SaveCoordinates(ctx context.Context, rec geocoding.Geocodable) error {
	student, ok := rec.(*models.Student)
	if !ok {
		return fmt.Errorf("student source cannot save %T", rec)
	}
	return src.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", student.ID).Updates(map[string]interface{}{
		"latitude":             student.Latitude,
		"longitude":            student.Longitude,
		"geocode_attempted_at": time.Now().UTC(),
	}).Error
}

func studentRecords(students []models.Student) []geocoding.Geocodable {
	out := make([]geocoding.Geocodable, len(students))
	for i := range students {
		out[i] = &students[i]
	}
	return out
}
