// Package routing derives route metrics, map payloads and geometry from a route's stops.
package routing

import (
	"encoding/json"
	"sort"

	"gorm.io/datatypes"

	"school_transport/internal/geo"
	"school_transport/internal/models"
)

// Map center used when a route has no located stop (Danang).
const (
	DefaultCenterLat = 16.0544
	DefaultCenterLon = 108.2022
)

// Metrics are the derived attributes of a route.
type Metrics struct {
	TotalDistance float64      `json:"total_distance"`
	CenterLat     float64      `json:"center_lat"`
	CenterLon     float64      `json:"center_lon"`
	Geometry      [][2]float64 `json:"route_geometry"`
}

// OrderStops returns a copy of stops sorted by sequence, ties broken by ID.
func OrderStops(stops []models.Stop) []models.Stop {
	ordered := make([]models.Stop, len(stops))
	copy(ordered, stops)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Sequence != ordered[j].Sequence {
			return ordered[i].Sequence < ordered[j].Sequence
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

// LocatedStops orders stops and drops the ones without coordinates.
func LocatedStops(stops []models.Stop) []models.Stop {
	located := make([]models.Stop, 0, len(stops))
	for _, s := range OrderStops(stops) {
		if s.Located() {
			located = append(located, s)
		}
	}
	return located
}

// Compute derives distance, center and geometry from the current stop state.
func Compute(stops []models.Stop) Metrics {
	located := LocatedStops(stops)

	m := Metrics{
		CenterLat: DefaultCenterLat,
		CenterLon: DefaultCenterLon,
		Geometry:  make([][2]float64, 0, len(located)),
	}
	if len(located) == 0 {
		return m
	}

	var total, sumLat, sumLon float64
	for i, s := range located {
		sumLat += s.Latitude
		sumLon += s.Longitude
		m.Geometry = append(m.Geometry, [2]float64{s.Latitude, s.Longitude})
		if i > 0 {
			prev := located[i-1]
			total += geo.Haversine(prev.Latitude, prev.Longitude, s.Latitude, s.Longitude)
		}
	}

	n := float64(len(located))
	m.TotalDistance = geo.Round2(total)
	m.CenterLat = sumLat / n
	m.CenterLon = sumLon / n
	return m
}

// Apply writes the metrics onto the route's derived columns.
func Apply(route *models.Route, m Metrics) error {
	raw, err := json.Marshal(m.Geometry)
	if err != nil {
		return err
	}
	route.TotalDistance = m.TotalDistance
	route.MapCenterLat = m.CenterLat
	route.MapCenterLon = m.CenterLon
	route.RouteGeometry = datatypes.JSON(raw)
	return nil
}
