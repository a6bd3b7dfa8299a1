package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Route is a bus route with its ordered stops and assigned students.
// TotalDistance, MapCenterLat, MapCenterLon and RouteGeometry are derived from the
// stops and are only written by the store when stops change.
type Route struct {
	gorm.Model

	Name       string `json:"name" binding:"required"`
	BusNumber  string `json:"bus_number"`
	DriverName string `json:"driver_name"`
	Capacity   int    `json:"capacity" gorm:"default:40"`

	// Derived
	TotalDistance float64        `json:"total_distance"`
	MapCenterLat  float64        `json:"map_center_lat"`
	MapCenterLon  float64        `json:"map_center_lon"`
	RouteGeometry datatypes.JSON `json:"route_geometry"`

	// Associations
	Stops    []Stop    `gorm:"foreignKey:RouteID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"stops,omitempty"`
	Students []Student `gorm:"many2many:route_students;" json:"students,omitempty"`
}
