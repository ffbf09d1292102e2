package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"user_portal/internal/services"
	"user_portal/internal/storage"
)

type UserController struct {
	users *services.UserService
	store storage.Store
}

func NewUserController(users *services.UserService, store storage.Store) *UserController {
	return &UserController{users: users, store: store}
}

func (uc *UserController) ListUsers(c *gin.Context) {
	users, err := uc.users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prepareUsersResponse(users))
}

func (uc *UserController) CreateUser(c *gin.Context) {
	user, ok := createFromForm(c, uc.users, uc.store)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, prepareUserResponse(*user))
}

func (uc *UserController) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := uc.users.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prepareUserResponse(*user))
}

func (uc *UserController) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := uc.users.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateUser handles PUT/POST /users/:id/update. Callers may edit only their
// own profile unless they are admins.
func (uc *UserController) UpdateUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if id != actor.ID && !actor.IsAdmin() {
		respondError(c, services.ErrForbidden)
		return
	}
	uc.applyUpdate(c, id, actor.IsAdmin())
}

// PatchUser handles the admin-only PATCH, which may also change role and
// employee details.
func (uc *UserController) PatchUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	uc.applyUpdate(c, id, true)
}

func (uc *UserController) applyUpdate(c *gin.Context, id uint, privileged bool) {
	user, err := updateFromForm(c, uc.users, uc.store, id, privileged)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prepareUserResponse(*user))
}
