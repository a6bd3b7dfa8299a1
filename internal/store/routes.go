package store

import (
	"context"

	"gorm.io/gorm"

	"school_transport/internal/models"
)

// RouteUpdate holds the editable route metadata. Nil fields are left unchanged.
type RouteUpdate struct {
	Name       *string `json:"name"`
	BusNumber  *string `json:"bus_number"`
	DriverName *string `json:"driver_name"`
	Capacity   *int    `json:"capacity"`
}

// CreateRoute inserts route together with route.Stops and reloads it with derived attributes.
func (s *Store) CreateRoute(ctx context.Context, route *models.Route) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Students").Create(route).Error; err != nil {
			return err
		}
		if err := RecomputeRoute(tx, route.ID); err != nil {
			return err
		}
		return tx.Preload("Stops", orderedStops).First(route, route.ID).Error
	})
}

// GetRoute loads a route with its ordered stops and students.
func (s *Store) GetRoute(ctx context.Context, id uint) (*models.Route, error) {
	var route models.Route
	err := s.db.WithContext(ctx).
		Preload("Stops", orderedStops).
		Preload("Students").
		First(&route, id).Error
	if err != nil {
		return nil, err
	}
	return &route, nil
}

// FindRoutes loads the routes with the given ids, with their stops.
func (s *Store) FindRoutes(ctx context.Context, ids []uint) ([]models.Route, error) {
	var routes []models.Route
	if len(ids) == 0 {
		return routes, nil
	}
	err := s.db.WithContext(ctx).
		Preload("Stops", orderedStops).
		Where("id IN ?", ids).
		Order("id").
		Find(&routes).Error
	return routes, err
}

// ListRoutes returns all routes with their stops.
func (s *Store) ListRoutes(ctx context.Context) ([]models.Route, error) {
	var routes []models.Route
	err := s.db.WithContext(ctx).Preload("Stops", orderedStops).Order("id").Find(&routes).Error
	return routes, err
}

// UpdateRoute applies the metadata changes. Derived attributes cannot be changed here.
func (s *Store) UpdateRoute(ctx context.Context, id uint, in RouteUpdate) (*models.Route, error) {
	var route models.Route
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&route, id).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if in.Name != nil {
			updates["name"] = *in.Name
		}
		if in.BusNumber != nil {
			updates["bus_number"] = *in.BusNumber
		}
		if in.DriverName != nil {
			updates["driver_name"] = *in.DriverName
		}
		if in.Capacity != nil {
			updates["capacity"] = *in.Capacity
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&route).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetRoute(ctx, id)
}

// DeleteRoute removes a route, its stops and its student assignments.
func (s *Store) DeleteRoute(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var route models.Route
		if err := tx.First(&route, id).Error; err != nil {
			return err
		}
		if err := tx.Where("route_id = ?", route.ID).Delete(&models.Stop{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&route).Association("Students").Clear(); err != nil {
			return err
		}
		return tx.Delete(&route).Error
	})
}

// ReplaceStops swaps all stops of a route for the given ones.
func (s *Store) ReplaceStops(ctx context.Context, routeID uint, stops []models.Stop) (*models.Route, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var route models.Route
		if err := tx.First(&route, routeID).Error; err != nil {
			return err
		}
		if err := tx.Where("route_id = ?", routeID).Delete(&models.Stop{}).Error; err != nil {
			return err
		}
		for i := range stops {
			stops[i].ID = 0
			stops[i].RouteID = routeID
		}
		if len(stops) > 0 {
			if err := tx.Create(&stops).Error; err != nil {
				return err
			}
		}
		return RecomputeRoute(tx, routeID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetRoute(ctx, routeID)
}

// AssignStudents replaces the set of students riding a route.
func (s *Store) AssignStudents(ctx context.Context, routeID uint, studentIDs []uint) (*models.Route, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var route models.Route
		if err := tx.First(&route, routeID).Error; err != nil {
			return err
		}
		if len(studentIDs) == 0 {
			return tx.Model(&route).Association("Students").Clear()
		}
		var students []models.Student
		if err := tx.Where("id IN ?", studentIDs).Find(&students).Error; err != nil {
			return err
		}
		if len(students) != len(uniqueIDs(studentIDs)) {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&route).Association("Students").Replace(students)
	})
	if err != nil {
		return nil, err
	}
	return s.GetRoute(ctx, routeID)
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
