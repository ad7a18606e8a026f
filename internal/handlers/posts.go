package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/breadit/backend/internal/middleware"
	"github.com/emilythestrangee/breadit/backend/internal/models"
	"github.com/emilythestrangee/breadit/backend/internal/service"
)

type PostHandler struct {
	posts  *service.PostService
	logger *zap.Logger
}

func NewPostHandler(posts *service.PostService, logger *zap.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: logger}
}

type feedQuery struct {
	SubredditName string `form:"subredditName"`
	Limit         int    `form:"limit" binding:"required,min=1,max=50"`
	Page          int    `form:"page" binding:"required,min=1"`
}

// GetPosts returns one page of the feed.
func (h *PostHandler) GetPosts(c *gin.Context) {
	var q feedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		invalidRequest(c, err)
		return
	}

	posts, err := h.posts.Feed(c.Request.Context(), middleware.UserID(c), service.FeedRequest{
		SubredditName: q.SubredditName,
		Limit:         q.Limit,
		Page:          q.Page,
	})
	if err != nil {
		respondText(c, h.logger, err, "Could not fetch more posts. Please try later")
		return
	}
	c.JSON(http.StatusOK, posts)
}

// GetPost returns a single post by ID
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.posts.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondText(c, h.logger, err, "Could not fetch post")
		return
	}
	c.JSON(http.StatusOK, post)
}

// CreatePost handles POST /api/subreddit/post/create.
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	if _, err := h.posts.Create(c.Request.Context(), middleware.UserID(c), req); err != nil {
		respondText(c, h.logger, err, "Could not create new post")
		return
	}
	c.String(http.StatusOK, "OK")
}

func (h *PostHandler) UpdatePost(c *gin.Context) {
	var req models.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	post, err := h.posts.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondText(c, h.logger, err, "Could not edit post")
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	if err := h.posts.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondText(c, h.logger, err, "Could not delete post")
		return
	}
	c.String(http.StatusOK, "OK")
}
