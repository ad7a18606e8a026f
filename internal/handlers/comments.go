package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/breadit/backend/internal/middleware"
	"github.com/emilythestrangee/breadit/backend/internal/models"
	"github.com/emilythestrangee/breadit/backend/internal/service"
)

type CommentHandler struct {
	comments *service.CommentService
	logger   *zap.Logger
}

func NewCommentHandler(comments *service.CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger}
}

func (h *CommentHandler) GetComments(c *gin.Context) {
	comments, err := h.comments.List(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondText(c, h.logger, err, "Could not fetch comments")
		return
	}
	c.JSON(http.StatusOK, comments)
}

// CreateComment handles POST /api/subreddit/post/comment.
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	if _, err := h.comments.Create(c.Request.Context(), middleware.UserID(c), req); err != nil {
		respondText(c, h.logger, err, "Could not create comment")
		return
	}
	c.String(http.StatusOK, "OK")
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	if err := h.comments.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondText(c, h.logger, err, "Could not delete comment")
		return
	}
	c.String(http.StatusOK, "OK")
}
