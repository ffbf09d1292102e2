package routes

import (
	"github.com/gin-gonic/gin"

	"user_portal/internal/middleware"
)

func PostRoutes(r *gin.Engine, auth *middleware.Auth, h handlers) {
	posts := r.Group("/posts")
	posts.Use(auth.RequireAuth())
	{
		posts.GET("", h.posts.ListPosts)
		posts.POST("", h.posts.CreatePost)
		posts.GET("/:id", h.posts.GetPost)
		posts.PUT("/:id", h.posts.UpdatePost)
		posts.DELETE("/:id", h.posts.DeletePost)
	}
}
