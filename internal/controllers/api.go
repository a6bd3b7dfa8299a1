package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"school_transport/internal/checkin"
	"school_transport/internal/geocoding"
	"school_transport/internal/realtime"
	"school_transport/internal/store"
)

// API bundles the dependencies shared by the HTTP handlers.
type API struct {
	Store    *store.Store
	Resolver *checkin.Resolver
	Geocoder *geocoding.Service
	Hub      *realtime.Hub
}

func NewAPI(st *store.Store, resolver *checkin.Resolver, geocoder *geocoding.Service, hub *realtime.Hub) *API {
	return &API{Store: st, Resolver: resolver, Geocoder: geocoder, Hub: hub}
}

// parseID reads a positive numeric path parameter.
func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param})
		return 0, false
	}
	return uint(id), true
}

// respondStoreError maps store errors onto the JSON error responses.
func respondStoreError(c *gin.Context, err error, notFound, action string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, store.ErrDuplicateCard):
		c.JSON(http.StatusConflict, gin.H{"error": "Card ID already registered"})
	case errors.Is(err, store.ErrDuplicateStudent):
		c.JSON(http.StatusConflict, gin.H{"error": "Admission number already registered"})
	case errors.Is(err, store.ErrInvalidCardStatus), errors.Is(err, store.ErrCoordinatePair),
		errors.Is(err, store.ErrAddressRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Errorf("Failed to %s", action)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

// Healthz reports liveness.
func (a *API) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
