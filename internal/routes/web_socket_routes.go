package routes

import (
	"github.com/gin-gonic/gin"

	"school_transport/internal/controllers"
)

func WebSocketRoutes(r *gin.Engine, api *controllers.API) {
	wsRoutes := r.Group("/ws")
	{
		wsRoutes.GET("/checkins", api.CheckinFeed)
	}
}
