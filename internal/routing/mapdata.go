package routing

import (
	"errors"
	"fmt"

	"school_transport/internal/models"
)

// ErrInvalidArgument is returned when a caller passes something other than exactly one route.
var ErrInvalidArgument = errors.New("invalid argument")

// MapStop is a located stop as sent to the map view and the JSON API.
type MapStop struct {
	Name          string  `json:"name"`
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	ArrivalTime   float64 `json:"arrival_time"`
	DepartureTime float64 `json:"departure_time"`
	Sequence      int     `json:"sequence"`
}

// MapData is the payload shared by the rendered map and the route data API.
type MapData struct {
	RouteName     string    `json:"route_name"`
	BusNumber     string    `json:"bus_number"`
	Stops         []MapStop `json:"stops"`
	CenterLat     float64   `json:"center_lat"`
	CenterLon     float64   `json:"center_lon"`
	TotalDistance float64   `json:"total_distance"`
}

// BuildMapData assembles the map payload for exactly one route. The route's Stops must be loaded.
func BuildMapData(routes []models.Route) (MapData, error) {
	if len(routes) != 1 {
		return MapData{}, fmt.Errorf("%w: expected exactly one route, got %d", ErrInvalidArgument, len(routes))
	}
	route := routes[0]

	located := LocatedStops(route.Stops)
	stops := make([]MapStop, 0, len(located))
	for _, s := range located {
		stops = append(stops, MapStop{
			Name:          s.Name,
			Lat:           s.Latitude,
			Lon:           s.Longitude,
			ArrivalTime:   s.ArrivalTime,
			DepartureTime: s.DepartureTime,
			Sequence:      s.Sequence,
		})
	}

	return MapData{
		RouteName:     route.Name,
		BusNumber:     route.BusNumber,
		Stops:         stops,
		CenterLat:     route.MapCenterLat,
		CenterLon:     route.MapCenterLon,
		TotalDistance: route.TotalDistance,
	}, nil
}
