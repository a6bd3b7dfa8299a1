package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"school_transport/internal/models"
	"school_transport/internal/store"
)

type stopInput struct {
	Name          string  `json:"name" binding:"required"`
	Sequence      *int    `json:"sequence"`
	Latitude      float64 `json:"latitude" binding:"gte=-90,lte=90"`
	Longitude     float64 `json:"longitude" binding:"gte=-180,lte=180"`
	ArrivalTime   float64 `json:"arrival_time" binding:"gte=0,lt=24"`
	DepartureTime float64 `json:"departure_time" binding:"gte=0,lt=24"`
}

func (in stopInput) toModel() models.Stop {
	seq := models.DefaultStopSequence
	if in.Sequence != nil {
		seq = *in.Sequence
	}
	return models.Stop{
		Name:          in.Name,
		Sequence:      seq,
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		ArrivalTime:   in.ArrivalTime,
		DepartureTime: in.DepartureTime,
	}
}

func stopModels(in []stopInput) []models.Stop {
	stops := make([]models.Stop, 0, len(in))
	for _, s := range in {
		stops = append(stops, s.toModel())
	}
	return stops
}

// ListRoutes returns every route with its stops.
func (a *API) ListRoutes(c *gin.Context) {
	routes, err := a.Store.ListRoutes(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, routeNotFound, "fetch routes")
		return
	}
	c.JSON(http.StatusOK, routes)
}

// CreateRoute creates a route, optionally with its stops.
func (a *API) CreateRoute(c *gin.Context) {
	var input struct {
		Name       string      `json:"name" binding:"required"`
		BusNumber  string      `json:"bus_number"`
		DriverName string      `json:"driver_name"`
		Capacity   int         `json:"capacity" binding:"gte=0"`
		Stops      []stopInput `json:"stops" binding:"dive"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("CreateRoute: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	route := models.Route{
		Name:       input.Name,
		BusNumber:  input.BusNumber,
		DriverName: input.DriverName,
		Capacity:   input.Capacity,
		Stops:      stopModels(input.Stops),
	}
	if err := a.Store.CreateRoute(c.Request.Context(), &route); err != nil {
		respondStoreError(c, err, routeNotFound, "create route")
		return
	}

	logrus.WithFields(logrus.Fields{
		"route_id": route.ID,
		"stops":    len(route.Stops),
	}).Info("Route created")
	c.JSON(http.StatusCreated, route)
}

// GetRoute returns one route with its ordered stops and students.
func (a *API) GetRoute(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	route, err := a.Store.GetRoute(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, routeNotFound, "fetch route")
		return
	}
	c.JSON(http.StatusOK, route)
}

// UpdateRoute changes route metadata.
func (a *API) UpdateRoute(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input store.RouteUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if input.Capacity != nil && *input.Capacity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Capacity cannot be negative"})
		return
	}

	route, err := a.Store.UpdateRoute(c.Request.Context(), id, input)
	if err != nil {
		respondStoreError(c, err, routeNotFound, "update route")
		return
	}
	c.JSON(http.StatusOK, route)
}

// DeleteRoute removes a route and its stops.
func (a *API) DeleteRoute(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := a.Store.DeleteRoute(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, routeNotFound, "delete route")
		return
	}
	logrus.WithField("route_id", id).Info("Route deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Route deleted"})
}

// AddStop appends a stop to a route.
func (a *API) AddStop(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input stopInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	stop := input.toModel()
	if err := a.Store.AddStop(c.Request.Context(), id, &stop); err != nil {
		respondStoreError(c, err, routeNotFound, "add stop")
		return
	}
	c.JSON(http.StatusCreated, stop)
}

// ReplaceStops swaps the whole stop list of a route.
func (a *API) ReplaceStops(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Stops []stopInput `json:"stops" binding:"dive"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	route, err := a.Store.ReplaceStops(c.Request.Context(), id, stopModels(input.Stops))
	if err != nil {
		respondStoreError(c, err, routeNotFound, "replace stops")
		return
	}
	c.JSON(http.StatusOK, route)
}

// AssignStudents sets the students riding a route.
func (a *API) AssignStudents(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input struct {
		StudentIDs []uint `json:"student_ids"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	route, err := a.Store.AssignStudents(c.Request.Context(), id, input.StudentIDs)
	if err != nil {
		respondStoreError(c, err, "Route or student not found", "assign students")
		return
	}
	c.JSON(http.StatusOK, route)
}
