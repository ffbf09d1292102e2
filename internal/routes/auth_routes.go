package routes

import (
	"github.com/gin-gonic/gin"

	"user_portal/internal/middleware"
)

func AuthRoutes(r *gin.Engine, auth *middleware.Auth, h handlers) {
	r.POST("/register", auth.OptionalAuth(), h.auth.SignupUser)
	r.POST("/login", h.auth.LoginUser)
	r.POST("/logout", h.auth.LogoutUser)
	r.POST("/password/reset", auth.RequireAuth(), h.auth.ResetPassword)
}
