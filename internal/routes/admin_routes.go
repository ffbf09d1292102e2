package routes

import (
	"github.com/gin-gonic/gin"

	"user_portal/internal/controllers"
	"user_portal/internal/middleware"
	"user_portal/internal/models"
)

func AdminRoutes(r *gin.Engine, auth *middleware.Auth, h handlers) {
	admin := r.Group("")
	admin.Use(auth.RequireAuth(), middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/stats", controllers.GetStats(h.userSvc))
	}
}
