// Package store persists routes, stops, students, cards and trip logs with gorm.
// Every stop mutation recomputes the owning route's derived attributes in the same
// transaction, so readers never see stale distance, center or geometry.
package store

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"school_transport/internal/models"
	"school_transport/internal/routing"
)

var (
	ErrDuplicateCard     = errors.New("card id already registered")
	ErrDuplicateStudent  = errors.New("admission number already registered")
	ErrInvalidCardStatus = errors.New("invalid card status")
	ErrCoordinatePair    = errors.New("latitude and longitude must be set together")
	ErrAddressRequired   = errors.New("house address is required")
)

// Store wraps a gorm handle.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// RecomputeRoute derives total distance, map center and geometry of routeID from its
// current stops and writes them. Call it inside the transaction that changed the stops.
func RecomputeRoute(tx *gorm.DB, routeID uint) error {
	var stops []models.Stop
	if err := tx.Where("route_id = ?", routeID).Order("sequence ASC, id ASC").Find(&stops).Error; err != nil {
		return fmt.Errorf("loading stops of route %d: %w", routeID, err)
	}

	var derived models.Route
	if err := routing.Apply(&derived, routing.Compute(stops)); err != nil {
		return fmt.Errorf("computing route %d: %w", routeID, err)
	}

	err := tx.Model(&models.Route{}).Where("id = ?", routeID).Updates(map[string]interface{}{
		"total_distance": derived.TotalDistance,
		"map_center_lat": derived.MapCenterLat,
		"map_center_lon": derived.MapCenterLon,
		"route_geometry": derived.RouteGeometry,
	}).Error
	if err != nil {
		return fmt.Errorf("saving derived attributes of route %d: %w", routeID, err)
	}
	return nil
}

// orderedStops preloads stops in route order.
func orderedStops(db *gorm.DB) *gorm.DB {
	return db.Order("sequence ASC, id ASC")
}

// isUniqueViolation recognizes duplicate keys from the lib/pq driver and from gorm's
// error translation.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
