package routes

import (
	"github.com/gin-gonic/gin"

	"user_portal/internal/middleware"
	"user_portal/internal/models"
)

func UserRoutes(r *gin.Engine, auth *middleware.Auth, h handlers) {
	r.POST("/users", auth.OptionalAuth(), h.users.CreateUser)

	users := r.Group("/users")
	users.Use(auth.RequireAuth())
	{
		users.GET("", h.users.ListUsers)
		users.PUT("/:id/update", h.users.UpdateUser)
		users.POST("/:id/update", h.users.UpdateUser)

		admin := users.Group("")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		admin.GET("/:id", h.users.GetUser)
		admin.DELETE("/:id", h.users.DeleteUser)
		admin.PATCH("/:id/update", h.users.PatchUser)
	}
}
