package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/breadit/backend/internal/auth"
	"github.com/emilythestrangee/breadit/backend/internal/config"
	"github.com/emilythestrangee/breadit/backend/internal/handlers"
	"github.com/emilythestrangee/breadit/backend/internal/metrics"
	"github.com/emilythestrangee/breadit/backend/internal/middleware"
)

// HealthChecker reports the state of a backing store.
type HealthChecker interface {
	Health() map[string]string
}

// Pinger is satisfied by the redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	cfg     config.ServerConfig
	handler *handlers.Handler
	tokens  *auth.Tokens
	db      HealthChecker
	cache   Pinger
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func New(cfg config.ServerConfig, h *handlers.Handler, tokens *auth.Tokens, db HealthChecker, cache Pinger, m *metrics.Metrics, logger *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		handler: h,
		tokens:  tokens,
		db:      db,
		cache:   cache,
		metrics: m,
		logger:  logger,
	}
}

// HTTPServer wraps the routes in an *http.Server with the configured timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", s.cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  s.cfg.IdleTimeout,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(s.logger),
		middleware.Logger(s.logger),
		middleware.Metrics(s.metrics),
	)

	origins := s.cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: !containsWildcard(origins),
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Reads personalise when a session is present
		public := api.Group("")
		public.Use(middleware.OptionalAuth(s.tokens))
		{
			public.GET("/posts", s.handler.Post.GetPosts)
			public.GET("/posts/:id", s.handler.Post.GetPost)
			public.GET("/posts/:id/comments", s.handler.Comment.GetComments)
		}

		protected := api.Group("")
		protected.Use(middleware.Auth(s.tokens))
		if s.cfg.RateLimit > 0 {
			protected.Use(middleware.RateLimit(s.cfg.RateLimit, s.cfg.RateBurst, s.logger))
		}
		{
			protected.GET("/me", s.handler.Auth.GetMe)

			protected.PATCH("/subreddit/post/vote", s.handler.Vote.VotePost)
			protected.PATCH("/subreddit/post/comment/vote", s.handler.Vote.VoteComment)

			protected.POST("/subreddit/post/create", s.handler.Post.CreatePost)
			protected.PUT("/posts/:id", s.handler.Post.UpdatePost)
			protected.DELETE("/posts/:id", s.handler.Post.DeletePost)

			protected.POST("/subreddit/post/comment", s.handler.Comment.CreateComment)
			protected.DELETE("/comments/:id", s.handler.Comment.DeleteComment)

			protected.POST("/subreddit", s.handler.Subreddit.CreateSubreddit)
			protected.POST("/subreddit/:id/subscription", s.handler.Subreddit.Subscribe)
			protected.DELETE("/subreddit/:id/subscription", s.handler.Subreddit.Unsubscribe)
		}
	}

	return r
}

func (s *Server) health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}

	if s.db != nil {
		db := s.db.Health()
		body["database"] = db
		if db["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
	}

	if s.cache != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		// the cache is an accelerator; a dead redis degrades but does not fail health
		if err := s.cache.Ping(ctx); err != nil {
			body["cache"] = gin.H{"status": "down", "error": err.Error()}
		} else {
			body["cache"] = gin.H{"status": "up"}
		}
	}

	if status != http.StatusOK {
		body["status"] = "unavailable"
	}
	c.JSON(status, body)
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
