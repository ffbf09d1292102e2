package routes

import (
	"github.com/gin-gonic/gin"

	"user_portal/internal/middleware"
)

func ProfileRoutes(r *gin.Engine, auth *middleware.Auth, h handlers) {
	profile := r.Group("/profile")
	profile.Use(auth.RequireAuth())
	{
		profile.GET("", h.profile.GetProfile)
		profile.PUT("", h.profile.UpdateProfile)
		profile.POST("/arrival", h.profile.RecordArrival)
		profile.GET("/time-entries", h.profile.ListTimeEntries)
		profile.GET("/locations", h.locations.ListLocations)
		profile.POST("/locations", h.locations.AddLocation)
		profile.DELETE("/locations/:id", h.locations.DeleteLocation)
	}
}
