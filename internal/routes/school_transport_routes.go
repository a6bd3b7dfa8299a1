package routes

import (
	"github.com/gin-gonic/gin"

	"school_transport/internal/controllers"
)

// SchoolTransportRoutes registers the public map views and the reader check-in endpoint.
func SchoolTransportRoutes(r *gin.Engine, api *controllers.API, checkinLimit gin.HandlerFunc) {
	st := r.Group("/school_transport")
	{
		st.GET("/map/:id", api.RenderRouteMap)
		st.GET("/api/route/:id", api.RouteMapData)
		st.POST("/api/route/:id", api.RouteMapData)
		st.GET("/api/route/:id/geometry", api.RouteGeometry)
		st.POST("/checkin", checkinLimit, api.CheckIn)
	}
}
