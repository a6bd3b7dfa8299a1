package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"school_transport/internal/realtime"
)

// CheckinFeed streams stored trip logs over a WebSocket.
// route_id selects one route; omitted or 0 subscribes to every route.
func (a *API) CheckinFeed(c *gin.Context) {
	routeID := realtime.AllRoutes
	if raw := c.Query("route_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route_id"})
			return
		}
		routeID = uint(parsed)
	}

	if err := a.Hub.Serve(c.Writer, c.Request, routeID); err != nil {
		logrus.WithError(err).WithField("route_id", routeID).Error("Failed to upgrade WebSocket connection.")
	}
}
