package routes

import (
	"io"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"user_portal/internal/controllers"
	"user_portal/internal/middleware"
	"user_portal/internal/notify"
	"user_portal/internal/services"
	"user_portal/internal/storage"
)

// Dependencies are the shared handles the router hands to its controllers.
type Dependencies struct {
	DB       *gorm.DB
	Store    storage.Store
	Auth     *middleware.Auth
	Notifier notify.Notifier
	HashCost int
	// LogWriter receives access logs; nil disables them.
	LogWriter io.Writer
}

type handlers struct {
	auth      *controllers.AuthController
	users     *controllers.UserController
	profile   *controllers.ProfileController
	posts     *controllers.PostController
	locations *controllers.LocationController
	userSvc   *services.UserService
}

func SetupRouter(deps Dependencies) *gin.Engine {
	controllers.RegisterValidatorTranslations()

	r := gin.New()
	r.Use(gin.Recovery())
	if deps.LogWriter != nil {
		r.Use(ginlog.SetLogger(
			ginlog.WithWriter(deps.LogWriter),
			ginlog.WithUTC(true),
		))
	}

	users := services.NewUserService(deps.DB, deps.HashCost)
	auth := deps.Auth.WithLookup(users.RoleOf)
	h := handlers{
		auth:      controllers.NewAuthController(users, deps.Store, auth, deps.Notifier),
		users:     controllers.NewUserController(users, deps.Store),
		profile:   controllers.NewProfileController(users, deps.Store),
		posts:     controllers.NewPostController(services.NewPostService(deps.DB)),
		locations: controllers.NewLocationController(services.NewLocationService(deps.DB)),
		userSvc:   users,
	}

	SiteRoutes(r, deps.Store)
	AuthRoutes(r, auth, h)
	UserRoutes(r, auth, h)
	ProfileRoutes(r, auth, h)
	PostRoutes(r, auth, h)
	AdminRoutes(r, auth, h)

	return r
}
