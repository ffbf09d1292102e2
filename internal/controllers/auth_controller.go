package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"user_portal/internal/middleware"
	"user_portal/internal/models"
	"user_portal/internal/notify"
	"user_portal/internal/services"
	"user_portal/internal/storage"
)

type AuthController struct {
	users    *services.UserService
	store    storage.Store
	auth     *middleware.Auth
	notifier notify.Notifier
}

func NewAuthController(users *services.UserService, store storage.Store, auth *middleware.Auth, notifier notify.Notifier) *AuthController {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &AuthController{users: users, store: store, auth: auth, notifier: notifier}
}

func (ac *AuthController) issueSession(c *gin.Context, user *models.User) (string, bool) {
	token, err := ac.auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("could not generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return "", false
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(ac.auth.TTL().Seconds()), "/", "", false, true)
	return token, true
}

// SignupUser registers an account from a multipart form and opens a session
// for it. Only an authenticated admin may register another admin.
func (ac *AuthController) SignupUser(c *gin.Context) {
	user, ok := createFromForm(c, ac.users, ac.store)
	if !ok {
		return
	}

	token, ok := ac.issueSession(c, user)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  prepareUserResponse(*user),
	})
}

func (ac *AuthController) LoginUser(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}

	user, err := ac.users.Authenticate(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, ok := ac.issueSession(c, user)
	if !ok {
		return
	}
	logrus.WithField("user_id", user.ID).Info("user logged in")
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  prepareUserResponse(*user),
	})
}

func (ac *AuthController) LogoutUser(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (ac *AuthController) ResetPassword(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var body struct {
		Email       string `json:"email" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}

	user, err := ac.users.ResetPassword(c.Request.Context(), actor, body.Email, body.NewPassword)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := ac.notifier.PasswordChanged(c.Request.Context(), user.Email, user.FullName()); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("password change notice not sent")
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}

// createFromForm is shared by /register and POST /users.
func createFromForm(c *gin.Context, users *services.UserService, store storage.Store) (*models.User, bool) {
	requested := strings.ToLower(strings.TrimSpace(c.PostForm("role")))
	if requested == models.RoleAdmin {
		if role, _ := middleware.CurrentRole(c); role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only an admin can create admin accounts"})
			return nil, false
		}
	}

	in, err := newUserFromForm(c)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if err := users.CheckNewUser(c.Request.Context(), in); err != nil {
		respondError(c, err)
		return nil, false
	}
	photo, err := savePhoto(c, store)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if photo != nil {
		in.DisplayPhoto = *photo
	}

	user, err := users.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return user, true
}
