package routes

import (
	"github.com/gin-gonic/gin"

	"school_transport/internal/controllers"
)

// AdminRoutes registers record management and geocoding jobs.
func AdminRoutes(r *gin.Engine, api *controllers.API) {
	admin := r.Group("/api")
	{
		admin.GET("/routes", api.ListRoutes)
		admin.POST("/routes", api.CreateRoute)
		admin.GET("/routes/:id", api.GetRoute)
		admin.PUT("/routes/:id", api.UpdateRoute)
		admin.DELETE("/routes/:id", api.DeleteRoute)
		admin.POST("/routes/:id/stops", api.AddStop)
		admin.PUT("/routes/:id/stops", api.ReplaceStops)
		admin.PUT("/routes/:id/students", api.AssignStudents)

		admin.GET("/stops/:id", api.GetStop)
		admin.PUT("/stops/:id", api.UpdateStop)
		admin.DELETE("/stops/:id", api.DeleteStop)

		admin.GET("/students", api.ListStudents)
		admin.POST("/students", api.CreateStudent)
		admin.GET("/students/:id", api.GetStudent)
		admin.PUT("/students/:id", api.UpdateStudent)
		admin.DELETE("/students/:id", api.DeleteStudent)

		admin.GET("/cards", api.ListCards)
		admin.POST("/cards", api.RegisterCard)
		admin.PUT("/cards/:id", api.UpdateCard)

		admin.GET("/trip_logs", api.ListTripLogs)

		admin.POST("/geocode", api.GeocodeRecords)
		admin.POST("/geocode/sweep", api.SweepGeocoding)
	}
}
