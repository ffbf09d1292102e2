package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"user_portal/internal/middleware"
	"user_portal/internal/models"
	"user_portal/internal/services"
	"user_portal/internal/storage"
)

// respondError maps service errors onto status codes:
// ValidationError 400 (409 for a taken email), not found 404, forbidden 403,
// bad credentials 401, anything else 500.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrEmailTaken) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this resource"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, storage.ErrInvalidFilename):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid upload filename", "field": "display_photo"})
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return 0, false
	}
	return uint(id), true
}

// currentActor reads the identity stored by RequireAuth.
func currentActor(c *gin.Context) (services.Actor, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return services.Actor{}, false
	}
	role, _ := middleware.CurrentRole(c)
	return services.Actor{ID: id, Role: role}, true
}

func prepareUserResponse(user models.User) gin.H {
	responseUser := gin.H{
		"id":            user.ID,
		"firstname":     user.Firstname,
		"lastname":      user.Lastname,
		"gender":        user.Gender,
		"email":         user.Email,
		"role":          user.Role,
		"contacts":      user.Contacts,
		"display_photo": user.DisplayPhoto,
		"arrivaltime":   user.ArrivalTime,
		"last_login":    user.LastLogin,
		"created_at":    user.CreatedAt,
		"updated_at":    user.UpdatedAt,
	}

	if user.Admin != nil {
		responseUser["admin"] = gin.H{
			"arrivaltime": user.Admin.ArrivalTime,
		}
	}
	if user.Employee != nil {
		responseUser["employee"] = gin.H{
			"employee_id": user.Employee.EmployeeID,
			"salary":      user.Employee.Salary,
			"department":  user.Employee.Department,
			"position":    user.Employee.Position,
			"arrivaltime": user.Employee.ArrivalTime,
		}
	}
	if len(user.Locations) > 0 {
		locations := make([]gin.H, 0, len(user.Locations))
		for _, loc := range user.Locations {
			locations = append(locations, prepareLocationResponse(loc))
		}
		responseUser["locations"] = locations
	}
	return responseUser
}

func prepareUsersResponse(users []models.User) []gin.H {
	out := make([]gin.H, 0, len(users))
	for _, user := range users {
		out = append(out, prepareUserResponse(user))
	}
	return out
}

func prepareLocationResponse(loc models.Location) gin.H {
	geometry, err := loc.GeoJSON()
	if err != nil {
		logrus.WithError(err).WithField("location_id", loc.ID).Warn("stored geometry is not valid WKB")
	}
	return gin.H{
		"id":          loc.ID,
		"user_id":     loc.UserID,
		"country":     loc.Country,
		"county":      loc.County,
		"town":        loc.Town,
		"postal_code": loc.PostalCode,
		"geometry":    geometry,
		"created_at":  loc.CreatedAt,
	}
}
