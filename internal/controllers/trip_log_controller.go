package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"school_transport/internal/store"
)

const defaultTripLogLimit = 100

// ListTripLogs returns trip logs newest first, filtered by card_id, student_id, route_id and status.
func (a *API) ListTripLogs(c *gin.Context) {
	filter := store.TripLogFilter{
		CardID: c.Query("card_id"),
		Status: c.Query("status"),
		Limit:  defaultTripLogLimit,
	}

	for param, dst := range map[string]*uint{"student_id": &filter.StudentID, "route_id": &filter.RouteID} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param})
			return
		}
		*dst = uint(v)
	}
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		filter.Limit = v
	}

	logs, err := a.Store.ListTripLogs(c.Request.Context(), filter)
	if err != nil {
		respondStoreError(c, err, "Trip log not found", "fetch trip logs")
		return
	}
	c.JSON(http.StatusOK, logs)
}
