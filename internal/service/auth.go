package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/emilythestrangee/breadit/backend/internal/apperr"
	"github.com/emilythestrangee/breadit/backend/internal/auth"
	"github.com/emilythestrangee/breadit/backend/internal/models"
	"github.com/emilythestrangee/breadit/backend/internal/store"
)

const msgInvalidCredentials = "Invalid credentials"

type AuthService struct {
	users  store.UserStore
	tokens *auth.Tokens
	cost   int
	logger *zap.Logger
}

func NewAuthService(users store.UserStore, tokens *auth.Tokens, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, cost: bcrypt.DefaultCost, logger: logger}
}

// Register creates an email/password account and signs the user in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, apperr.Persistence("Failed to hash password", err)
	}

	user := &models.User{
		Username: req.Username,
		Email:    strings.ToLower(req.Email),
		Password: string(hashed),
		Image:    req.Image,
	}
	err = s.users.CreateUser(ctx, user)
	if errors.Is(err, store.ErrConflict) {
		return nil, apperr.Conflict("Username or email already exists")
	}
	if err != nil {
		return nil, apperr.Persistence("Failed to create user", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return s.session(user)
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(req.Email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Unauthenticated(msgInvalidCredentials)
	}
	if err != nil {
		return nil, apperr.Persistence("Failed to log in", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthenticated(msgInvalidCredentials)
	}
	return s.session(user)
}

// Me returns the signed-in user's account.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, apperr.Unauthenticated(msgUnauthorized)
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Persistence("Failed to load user", err)
	}
	return user, nil
}

func (s *AuthService) session(user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, apperr.Persistence("Failed to generate token", err)
	}
	return &models.AuthResponse{Token: token, User: *user}, nil
}
