package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"user_portal/internal/services"
	"user_portal/internal/storage"
)

type ProfileController struct {
	users *services.UserService
	store storage.Store
}

func NewProfileController(users *services.UserService, store storage.Store) *ProfileController {
	return &ProfileController{users: users, store: store}
}

func (pc *ProfileController) GetProfile(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	user, err := pc.users.Get(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prepareUserResponse(*user))
}

func (pc *ProfileController) UpdateProfile(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	user, err := updateFromForm(c, pc.users, pc.store, actor.ID, false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prepareUserResponse(*user))
}

func (pc *ProfileController) RecordArrival(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var body struct {
		ArrivalTime *int `json:"arrivaltime" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	user, err := pc.users.RecordArrival(c.Request.Context(), actor.ID, *body.ArrivalTime)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prepareUserResponse(*user))
}

func (pc *ProfileController) ListTimeEntries(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	entries, err := pc.users.TimeEntries(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
