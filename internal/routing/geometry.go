package routing

import (
	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-polyline"

	"school_transport/internal/models"
)

// Bounds is the bounding box of a route's located stops.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// LineString builds the route path from located stops. Coordinates are in lon/lat order.
func LineString(stops []models.Stop) (*geom.LineString, error) {
	located := LocatedStops(stops)
	coords := make([]geom.Coord, 0, len(located))
	for _, s := range located {
		coords = append(coords, geom.Coord{s.Longitude, s.Latitude})
	}
	return geom.NewLineString(geom.XY).SetCoords(coords)
}

// GeoJSON encodes the route path as a GeoJSON LineString.
func GeoJSON(ls *geom.LineString) ([]byte, error) {
	return gjson.Marshal(ls)
}

// EncodedPolyline encodes the route path in Google's polyline format.
func EncodedPolyline(ls *geom.LineString) string {
	coords := make([][]float64, 0, ls.NumCoords())
	for i := 0; i < ls.NumCoords(); i++ {
		c := ls.Coord(i)
		coords = append(coords, []float64{c.Y(), c.X()})
	}
	return string(polyline.EncodeCoords(coords))
}

// PathBounds returns nil for an empty path.
func PathBounds(ls *geom.LineString) *Bounds {
	if ls.NumCoords() == 0 {
		return nil
	}
	b := ls.Bounds()
	return &Bounds{
		MinLat: b.Min(1),
		MinLon: b.Min(0),
		MaxLat: b.Max(1),
		MaxLon: b.Max(0),
	}
}
