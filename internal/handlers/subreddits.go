package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/breadit/backend/internal/middleware"
	"github.com/emilythestrangee/breadit/backend/internal/models"
	"github.com/emilythestrangee/breadit/backend/internal/service"
)

type SubredditHandler struct {
	communities *service.CommunityService
	logger      *zap.Logger
}

func NewSubredditHandler(communities *service.CommunityService, logger *zap.Logger) *SubredditHandler {
	return &SubredditHandler{communities: communities, logger: logger}
}

// CreateSubreddit responds with the new subreddit's name.
func (h *SubredditHandler) CreateSubreddit(c *gin.Context) {
	var req models.CreateSubredditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	sub, err := h.communities.Create(c.Request.Context(), middleware.UserID(c), req.Name)
	if err != nil {
		respondText(c, h.logger, err, "Could not create subreddit")
		return
	}
	c.String(http.StatusOK, sub.Name)
}

// Subscribe responds with the subreddit id.
func (h *SubredditHandler) Subscribe(c *gin.Context) {
	id := c.Param("id")
	if err := h.communities.Subscribe(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondText(c, h.logger, err, "Could not subscribe at this time. Please try later")
		return
	}
	c.String(http.StatusOK, id)
}

func (h *SubredditHandler) Unsubscribe(c *gin.Context) {
	id := c.Param("id")
	if err := h.communities.Unsubscribe(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondText(c, h.logger, err, "Could not unsubscribe at this time. Please try later")
		return
	}
	c.String(http.StatusOK, id)
}
