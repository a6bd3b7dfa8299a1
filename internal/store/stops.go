package store

import (
	"context"

	"gorm.io/gorm"

	"school_transport/internal/models"
)

// StopUpdate holds stop changes. Latitude and Longitude must be given together.
type StopUpdate struct {
	Name          *string  `json:"name"`
	Sequence      *int     `json:"sequence"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	ArrivalTime   *float64 `json:"arrival_time"`
	DepartureTime *float64 `json:"departure_time"`
}

// GetStop loads a single stop.
func (s *Store) GetStop(ctx context.Context, id uint) (*models.Stop, error) {
	var stop models.Stop
	if err := s.db.WithContext(ctx).First(&stop, id).Error; err != nil {
		return nil, err
	}
	return &stop, nil
}

// AddStop attaches a new stop to routeID.
func (s *Store) AddStop(ctx context.Context, routeID uint, stop *models.Stop) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var route models.Route
		if err := tx.First(&route, routeID).Error; err != nil {
			return err
		}
		stop.ID = 0
		stop.RouteID = routeID
		if err := tx.Create(stop).Error; err != nil {
			return err
		}
		if err := RecomputeRoute(tx, routeID); err != nil {
			return err
		}
		return tx.First(stop, stop.ID).Error
	})
}

// UpdateStop changes a stop and recomputes its route.
func (s *Store) UpdateStop(ctx context.Context, id uint, in StopUpdate) (*models.Stop, error) {
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, ErrCoordinatePair
	}

	var stop models.Stop
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&stop, id).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if in.Name != nil {
			updates["name"] = *in.Name
			if *in.Name != stop.Name {
				updates["geocode_attempted_at"] = nil
			}
		}
		if in.Sequence != nil {
			updates["sequence"] = *in.Sequence
		}
		if in.Latitude != nil {
			updates["latitude"] = *in.Latitude
			updates["longitude"] = *in.Longitude
		}
		if in.ArrivalTime != nil {
			updates["arrival_time"] = *in.ArrivalTime
		}
		if in.DepartureTime != nil {
			updates["departure_time"] = *in.DepartureTime
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&stop).Updates(updates).Error; err != nil {
			return err
		}
		if err := RecomputeRoute(tx, stop.RouteID); err != nil {
			return err
		}
		return tx.First(&stop, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &stop, nil
}

// DeleteStop removes a stop and recomputes its route.
func (s *Store) DeleteStop(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stop models.Stop
		if err := tx.First(&stop, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&stop).Error; err != nil {
			return err
		}
		return RecomputeRoute(tx, stop.RouteID)
	})
}
