package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/emilythestrangee/breadit/backend/internal/apperr"
	"github.com/emilythestrangee/breadit/backend/internal/models"
	"github.com/emilythestrangee/breadit/backend/internal/store"
	"github.com/emilythestrangee/breadit/backend/internal/vote"
)

type CommentService struct {
	comments store.CommentStore
	votes    store.VoteStore
	logger   *zap.Logger
}

func NewCommentService(comments store.CommentStore, votes store.VoteStore, logger *zap.Logger) *CommentService {
	return &CommentService{comments: comments, votes: votes, logger: logger}
}

// Create adds a comment to a post, optionally as a reply to another comment
// on the same post.
func (s *CommentService) Create(ctx context.Context, authorID string, req models.CreateCommentRequest) (*models.Comment, error) {
	if authorID == "" {
		return nil, apperr.Unauthenticated(msgUnauthorized)
	}

	ok, err := s.votes.PostExists(ctx, req.PostID)
	if err != nil {
		return nil, apperr.Persistence("Could not create comment", err)
	}
	if !ok {
		return nil, apperr.NotFound(msgPostNotFound)
	}

	if req.ReplyToID != nil && *req.ReplyToID != "" {
		parent, err := s.comments.GetComment(ctx, *req.ReplyToID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound(msgCommentMissed)
		}
		if err != nil {
			return nil, apperr.Persistence("Could not create comment", err)
		}
		if parent.PostID != req.PostID {
			return nil, apperr.Validation("Reply must belong to the same post", nil)
		}
	} else {
		req.ReplyToID = nil
	}

	comment := &models.Comment{
		Text:      req.Text,
		AuthorID:  authorID,
		PostID:    req.PostID,
		ReplyToID: req.ReplyToID,
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, apperr.Persistence("Could not create comment", err)
	}
	return comment, nil
}

// List returns a post's comments, oldest first, with tallies and the
// viewer's own votes.
func (s *CommentService) List(ctx context.Context, viewerID, postID string) ([]models.CommentView, error) {
	ok, err := s.votes.PostExists(ctx, postID)
	if err != nil {
		return nil, apperr.Persistence("Could not fetch comments", err)
	}
	if !ok {
		return nil, apperr.NotFound(msgPostNotFound)
	}

	comments, err := s.comments.ListComments(ctx, postID)
	if err != nil {
		return nil, apperr.Persistence("Could not fetch comments", err)
	}

	out := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		types := make([]vote.Type, len(c.Votes))
		current := vote.None
		for i, v := range c.Votes {
			types[i] = v.Type
			if viewerID != "" && v.UserID == viewerID {
				current = v.Type
			}
		}
		out = append(out, models.CommentView{
			Comment:     c,
			VotesAmount: vote.Tally(types),
			CurrentVote: current,
		})
	}
	return out, nil
}

// Delete removes a comment its author owns.
func (s *CommentService) Delete(ctx context.Context, userID, commentID string) error {
	if userID == "" {
		return apperr.Unauthenticated(msgUnauthorized)
	}

	comment, err := s.comments.GetComment(ctx, commentID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(msgCommentMissed)
	}
	if err != nil {
		return apperr.Persistence("Could not delete comment", err)
	}
	if comment.AuthorID != userID {
		return apperr.Forbidden("You can only delete your own comments")
	}

	if err := s.comments.DeleteComment(ctx, commentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(msgCommentMissed)
		}
		return apperr.Persistence("Could not delete comment", err)
	}
	return nil
}
