package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/emilythestrangee/breadit/backend/internal/apperr"
	"github.com/emilythestrangee/breadit/backend/internal/models"
	"github.com/emilythestrangee/breadit/backend/internal/store"
)

const msgSubredditNotFound = "Subreddit not found"

type CommunityService struct {
	communities store.CommunityStore
	logger      *zap.Logger
}

func NewCommunityService(communities store.CommunityStore, logger *zap.Logger) *CommunityService {
	return &CommunityService{communities: communities, logger: logger}
}

// Create makes a new subreddit and subscribes its creator to it.
func (s *CommunityService) Create(ctx context.Context, creatorID, name string) (*models.Subreddit, error) {
	if creatorID == "" {
		return nil, apperr.Unauthenticated(msgUnauthorized)
	}

	sub := &models.Subreddit{Name: name, CreatorID: creatorID}
	err := s.communities.CreateSubreddit(ctx, sub)
	if errors.Is(err, store.ErrConflict) {
		return nil, apperr.Conflict("Subreddit already exists")
	}
	if err != nil {
		return nil, apperr.Persistence("Could not create subreddit", err)
	}

	s.logger.Info("subreddit created", zap.String("subreddit_id", sub.ID), zap.String("name", name))
	return sub, nil
}

func (s *CommunityService) Subscribe(ctx context.Context, userID, subredditID string) error {
	if userID == "" {
		return apperr.Unauthenticated(msgUnauthorized)
	}
	if _, err := s.subreddit(ctx, subredditID); err != nil {
		return err
	}

	err := s.communities.Subscribe(ctx, userID, subredditID)
	if errors.Is(err, store.ErrConflict) {
		return apperr.Conflict("You are already subscribed to this subreddit")
	}
	if err != nil {
		return apperr.Persistence("Could not subscribe at this time. Please try later", err)
	}
	return nil
}

// Unsubscribe drops a subscription. A creator cannot leave their own subreddit.
func (s *CommunityService) Unsubscribe(ctx context.Context, userID, subredditID string) error {
	if userID == "" {
		return apperr.Unauthenticated(msgUnauthorized)
	}
	sub, err := s.subreddit(ctx, subredditID)
	if err != nil {
		return err
	}
	if sub.CreatorID == userID {
		return apperr.Conflict("You can't unsubscribe from your own subreddit")
	}

	err = s.communities.Unsubscribe(ctx, userID, subredditID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.Conflict("You are not subscribed to this subreddit")
	}
	if err != nil {
		return apperr.Persistence("Could not unsubscribe at this time. Please try later", err)
	}
	return nil
}

func (s *CommunityService) subreddit(ctx context.Context, subredditID string) (*models.Subreddit, error) {
	sub, err := s.communities.GetSubreddit(ctx, subredditID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(msgSubredditNotFound)
	}
	if err != nil {
		return nil, apperr.Persistence("Could not load subreddit", err)
	}
	return sub, nil
}
