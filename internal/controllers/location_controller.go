package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"user_portal/internal/services"
)

type LocationController struct {
	locations *services.LocationService
}

func NewLocationController(locations *services.LocationService) *LocationController {
	return &LocationController{locations: locations}
}

func (lc *LocationController) ListLocations(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	locations, err := lc.locations.List(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(locations))
	for _, loc := range locations {
		out = append(out, prepareLocationResponse(loc))
	}
	c.JSON(http.StatusOK, out)
}

// AddLocation accepts either latitude/longitude or a GeoJSON point in
// "geometry".
func (lc *LocationController) AddLocation(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var body services.NewLocation
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	loc, err := lc.locations.Add(c.Request.Context(), actor.ID, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, prepareLocationResponse(*loc))
}

func (lc *LocationController) DeleteLocation(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := lc.locations.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
