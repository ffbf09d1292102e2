package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"user_portal/internal/config"
	"user_portal/internal/logger"
	"user_portal/internal/middleware"
	"user_portal/internal/notify"
	"user_portal/internal/routes"
	"user_portal/internal/services"
	"user_portal/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Initialize structured logging to file
	logWriter := logger.Setup(cfg.Log.File, cfg.Log.Level)

	// Connect to the database
	db, err := config.InitDB(cfg, logger.GormLogger())
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}

	store, err := storage.NewDiskStore(cfg.UploadFolder)
	if err != nil {
		logrus.WithError(err).Fatal("failed to prepare upload folder")
	}

	notifier, err := notify.New(cfg.SMTPConfig())
	if err != nil {
		logrus.WithError(err).Fatal("failed to configure mailer")
	}

	if cfg.InitialAdmin.Email != "" {
		users := services.NewUserService(db, bcrypt.DefaultCost)
		admin, err := users.EnsureAdmin(context.Background(), services.NewUser{
			Firstname: cfg.InitialAdmin.Firstname,
			Lastname:  cfg.InitialAdmin.Lastname,
			Email:     cfg.InitialAdmin.Email,
			Password:  cfg.InitialAdmin.Password,
		})
		switch {
		case errors.Is(err, services.ErrAccountNotAdmin):
			logrus.WithError(err).WithField("user_id", admin.ID).Warn("INITIAL_ADMIN_EMAIL belongs to a non-admin account; no admin was created")
		case err != nil:
			logrus.WithError(err).Fatal("failed to create initial admin")
		default:
			logrus.WithField("user_id", admin.ID).Info("initial admin ready")
		}
	}

	r := routes.SetupRouter(routes.Dependencies{
		DB:        db,
		Store:     store,
		Auth:      middleware.NewAuth(cfg.JWT.Secret, cfg.JWTExpiration()),
		Notifier:  notifier,
		HashCost:  bcrypt.DefaultCost,
		LogWriter: logWriter,
	})

	// Wrap with CORS
	handler := middleware.EnableCORS(r, cfg.CORSAllowedOrigins)

	addr := "0.0.0.0:" + cfg.Port
	logrus.WithField("addr", addr).Info("server starting")
	log.Printf("Server running at %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
