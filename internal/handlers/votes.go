package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/breadit/backend/internal/middleware"
	"github.com/emilythestrangee/breadit/backend/internal/models"
	"github.com/emilythestrangee/breadit/backend/internal/service"
)

const msgVoteFailed = "Could not register your vote at this time. Please try later"

type VoteHandler struct {
	votes  *service.VoteService
	logger *zap.Logger
}

func NewVoteHandler(votes *service.VoteService, logger *zap.Logger) *VoteHandler {
	return &VoteHandler{votes: votes, logger: logger}
}

// VotePost handles PATCH /api/subreddit/post/vote.
func (h *VoteHandler) VotePost(c *gin.Context) {
	var req models.PostVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	outcome, err := h.votes.VotePost(c.Request.Context(), middleware.UserID(c), req.PostID, req.VoteType)
	if err != nil {
		respondText(c, h.logger, err, msgVoteFailed)
		return
	}
	c.String(http.StatusOK, outcome.Message())
}

// VoteComment handles PATCH /api/subreddit/post/comment/vote.
func (h *VoteHandler) VoteComment(c *gin.Context) {
	var req models.CommentVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	outcome, err := h.votes.VoteComment(c.Request.Context(), middleware.UserID(c), req.CommentID, req.VoteType)
	if err != nil {
		respondText(c, h.logger, err, msgVoteFailed)
		return
	}
	c.String(http.StatusOK, outcome.Message())
}
