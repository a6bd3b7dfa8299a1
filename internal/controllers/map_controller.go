package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"school_transport/internal/models"
	"school_transport/internal/routing"
	"school_transport/internal/web"
)

const routeNotFound = "Route not found"

// loadMapData fetches one route and assembles its map payload.
func (a *API) loadMapData(c *gin.Context) (routing.MapData, *models.Route, error) {
	id, ok := parseID(c, "id")
	if !ok {
		return routing.MapData{}, nil, errBadID
	}
	route, err := a.Store.GetRoute(c.Request.Context(), id)
	if err != nil {
		return routing.MapData{}, nil, err
	}
	data, err := routing.BuildMapData([]models.Route{*route})
	return data, route, err
}

var errBadID = errors.New("invalid id")

// RenderRouteMap renders the Leaflet view of a route.
func (a *API) RenderRouteMap(c *gin.Context) {
	data, route, err := a.loadMapData(c)
	if errors.Is(err, errBadID) {
		return
	}
	if err != nil {
		status := http.StatusInternalServerError
		message := "Failed to load route"
		if errors.Is(err, gorm.ErrRecordNotFound) {
			status, message = http.StatusNotFound, routeNotFound
		} else {
			logrus.WithError(err).WithField("route_id", c.Param("id")).Error("RenderRouteMap: failed to build map data")
		}
		c.HTML(status, web.ErrorTemplate, gin.H{"Error": message})
		return
	}

	centerLat, centerLon := route.MapCenterLat, route.MapCenterLon
	if !models.IsLocated(centerLat, centerLon) {
		centerLat, centerLon = routing.DefaultCenterLat, routing.DefaultCenterLon
	}
	c.HTML(http.StatusOK, web.MapTemplate, gin.H{
		"Map":       data,
		"CenterLat": centerLat,
		"CenterLon": centerLon,
	})
}

// RouteMapData returns the map payload of a route as JSON.
func (a *API) RouteMapData(c *gin.Context) {
	data, _, err := a.loadMapData(c)
	if errors.Is(err, errBadID) {
		return
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": routeNotFound})
			return
		}
		logrus.WithError(err).WithField("route_id", c.Param("id")).Error("RouteMapData: failed to build map data")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load route"})
		return
	}
	c.JSON(http.StatusOK, data)
}

// RouteGeometry returns the route path as GeoJSON, encoded polyline and bounds.
func (a *API) RouteGeometry(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	route, err := a.Store.GetRoute(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, routeNotFound, "load route")
		return
	}

	ls, err := routing.LineString(route.Stops)
	if err != nil {
		logrus.WithError(err).WithField("route_id", id).Error("RouteGeometry: failed to build line string")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build geometry"})
		return
	}
	geoJSON, err := routing.GeoJSON(ls)
	if err != nil {
		logrus.WithError(err).WithField("route_id", id).Error("RouteGeometry: failed to encode GeoJSON")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build geometry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"route_id":       route.ID,
		"total_distance": route.TotalDistance,
		"geojson":        json.RawMessage(geoJSON),
		"polyline":       routing.EncodedPolyline(ls),
		"bounds":         routing.PathBounds(ls),
	})
}
