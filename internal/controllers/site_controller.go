package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"user_portal/internal/services"
	"user_portal/internal/storage"
)

const (
	homePage    = "<h1>user application</h1>"
	welcomePage = "<h1>Welcome to user application!</h1>"
)

func Home(c *gin.Context) {
	page := homePage
	if c.Request.Method == http.MethodPost {
		page = welcomePage
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// ServeUpload streams a stored upload back as raw bytes.
func ServeUpload(store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		path, err := store.Locate(c.Param("filename"))
		if err != nil {
			if !errors.Is(err, storage.ErrFileNotFound) && !errors.Is(err, storage.ErrInvalidFilename) {
				logrus.WithError(err).WithField("filename", c.Param("filename")).Error("could not locate upload")
			}
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}
		c.File(path)
	}
}

// GetStats returns the per-role UserStats rows.
func GetStats(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := users.Stats(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
