package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"school_transport/internal/geocoding"
)

// GeocodeRecords geocodes the selected records of one model, e.g. {"model":"stop","ids":[1,2]}.
func (a *API) GeocodeRecords(c *gin.Context) {
	var input struct {
		Model string `json:"model" binding:"required"`
		IDs   []uint `json:"ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	summary, err := a.Geocoder.GeocodeIDs(c.Request.Context(), input.Model, input.IDs)
	if err != nil {
		a.respondGeocodeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// SweepGeocoding geocodes pending records of ?model=, or of every registered model when omitted.
func (a *API) SweepGeocoding(c *gin.Context) {
	model := c.Query("model")
	if model == "" {
		c.JSON(http.StatusOK, a.Geocoder.SweepAll(c.Request.Context()))
		return
	}

	summary, err := a.Geocoder.Sweep(c.Request.Context(), model)
	if err != nil {
		a.respondGeocodeError(c, err)
		return
	}
	c.JSON(http.StatusOK, []geocoding.Summary{summary})
}

func (a *API) respondGeocodeError(c *gin.Context, err error) {
	if errors.Is(err, geocoding.ErrUnsupportedModel) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "models": a.Geocoder.Models()})
		return
	}
	logrus.WithError(err).Error("Geocoding request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Geocoding failed"})
}
