// Package handlers adapts HTTP requests to the service layer.
package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/emilythestrangee/breadit/backend/internal/apperr"
	"github.com/emilythestrangee/breadit/backend/internal/service"
	"github.com/emilythestrangee/breadit/backend/internal/vote"
)

const msgInvalidRequest = "Invalid request data passed"

// Services are the application services the handlers delegate to.
type Services struct {
	Votes       *service.VoteService
	Posts       *service.PostService
	Comments    *service.CommentService
	Communities *service.CommunityService
	Auth        *service.AuthService
}

// Handler combines all handler types
type Handler struct {
	Auth      *AuthHandler
	Vote      *VoteHandler
	Post      *PostHandler
	Comment   *CommentHandler
	Subreddit *SubredditHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(svc Services, logger *zap.Logger) *Handler {
	if err := RegisterValidators(); err != nil {
		logger.Fatal("register validators", zap.Error(err))
	}

	return &Handler{
		Auth:      NewAuthHandler(svc.Auth, logger),
		Vote:      NewVoteHandler(svc.Votes, logger),
		Post:      NewPostHandler(svc.Posts, logger),
		Comment:   NewCommentHandler(svc.Comments, logger),
		Subreddit: NewSubredditHandler(svc.Communities, logger),
	}
}

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators adds the "votetype" binding tag to gin's validator.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("handlers: unexpected validator engine")
			return
		}
		registerErr = v.RegisterValidation("votetype", func(fl validator.FieldLevel) bool {
			return vote.Type(fl.Field().String()).Valid()
		})
	})
	return registerErr
}

// invalidRequest answers a failed bind with 422.
func invalidRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.String(http.StatusUnprocessableEntity, msgInvalidRequest)
}

// respondText writes err as a plain-text body with its mapped status.
func respondText(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	status := apperr.HTTPStatus(apperr.KindOf(err))
	logFailure(c, logger, err, status)
	c.String(status, apperr.MessageOf(err, fallback))
}

// respondJSON writes err as {"error": message} with its mapped status.
func respondJSON(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	status := apperr.HTTPStatus(apperr.KindOf(err))
	logFailure(c, logger, err, status)
	c.JSON(status, gin.H{"error": apperr.MessageOf(err, fallback)})
}

func logFailure(c *gin.Context, logger *zap.Logger, err error, status int) {
	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
}
