package routes

import (
	"github.com/gin-gonic/gin"

	"user_portal/internal/controllers"
	"user_portal/internal/storage"
)

func SiteRoutes(r *gin.Engine, store storage.Store) {
	r.GET("/", controllers.Home)
	r.POST("/", controllers.Home)
	r.GET("/uploads/:filename", controllers.ServeUpload(store))
}
