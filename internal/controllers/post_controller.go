package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"user_portal/internal/models"
	"user_portal/internal/services"
)

type PostController struct {
	posts *services.PostService
}

func NewPostController(posts *services.PostService) *PostController {
	return &PostController{posts: posts}
}

func preparePostResponse(post models.Post) gin.H {
	return gin.H{
		"id":          post.ID,
		"user_id":     post.UserID,
		"title":       post.Title,
		"content":     post.Content,
		"date_posted": post.DatePosted,
	}
}

// ListPosts returns every post, or one author's posts with ?user_id=.
func (pc *PostController) ListPosts(c *gin.Context) {
	var userID uint
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id"})
			return
		}
		userID = uint(id)
	}

	posts, err := pc.posts.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(posts))
	for _, post := range posts {
		out = append(out, preparePostResponse(post))
	}
	c.JSON(http.StatusOK, out)
}

func (pc *PostController) CreatePost(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var body struct {
		Title   string `json:"title" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	post, err := pc.posts.Create(c.Request.Context(), actor.ID, body.Title, body.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, preparePostResponse(*post))
}

func (pc *PostController) GetPost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	post, err := pc.posts.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preparePostResponse(*post))
}

func (pc *PostController) UpdatePost(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	post, err := pc.posts.Update(c.Request.Context(), actor, id, body.Title, body.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preparePostResponse(*post))
}

func (pc *PostController) DeletePost(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := pc.posts.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
