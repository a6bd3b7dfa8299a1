package routes

import (
	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"school_transport/internal/controllers"
	"school_transport/internal/web"
)

// SetupRouter builds the gin engine with every route group registered.
// checkinLimit guards the public check-in endpoint.
func SetupRouter(api *controllers.API, checkinLimit gin.HandlerFunc) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ginlog.SetLogger(ginlog.WithSkipPath([]string{"/healthz"})))

	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	r.GET("/healthz", api.Healthz)

	SchoolTransportRoutes(r, api, checkinLimit)
	AdminRoutes(r, api)
	WebSocketRoutes(r, api)

	return r, nil
}
