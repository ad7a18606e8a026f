// Package store is the persistence layer: repository interfaces, the gorm
// implementation backed by postgres, and an in-memory implementation.
package store

import (
	"context"
	"errors"

	"github.com/emilythestrangee/breadit/backend/internal/models"
	"github.com/emilythestrangee/breadit/backend/internal/vote"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a uniqueness constraint is violated.
	ErrConflict = errors.New("store: conflict")
)

// VoteStore persists votes on posts and comments.
type VoteStore interface {
	PostExists(ctx context.Context, postID string) (bool, error)
	CommentExists(ctx context.Context, commentID string) (bool, error)

	// UpsertPostVote applies the toggle semantics for (userID, postID) in one
	// transaction and reports the branch taken.
	UpsertPostVote(ctx context.Context, userID, postID string, t vote.Type) (vote.Outcome, error)
	UpsertCommentVote(ctx context.Context, userID, commentID string, t vote.Type) (vote.Outcome, error)

	PostVoteTypes(ctx context.Context, postID string) ([]vote.Type, error)
	CommentVoteTypes(ctx context.Context, commentID string) ([]vote.Type, error)

	UserPostVote(ctx context.Context, userID, postID string) (vote.Type, error)
}

// FeedQuery selects a page of posts, newest first.
type FeedQuery struct {
	// SubredditName restricts the page to one community when set.
	SubredditName string
	// SubredditIDs restricts the page to these communities when
	// RestrictToSubreddits is set; an empty list then yields no posts.
	SubredditIDs         []string
	RestrictToSubreddits bool

	Limit  int
	Offset int
}

// PostStore persists posts.
type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	// GetPost loads a post with its author and subreddit.
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	// DeletePost removes a post together with its comments and votes.
	DeletePost(ctx context.Context, postID string) error
	// ListPosts loads posts with author, subreddit and votes.
	ListPosts(ctx context.Context, q FeedQuery) ([]models.Post, error)
	CountComments(ctx context.Context, postIDs []string) (map[string]int, error)
}

// CommunityStore persists subreddits and subscriptions.
type CommunityStore interface {
	// CreateSubreddit creates the subreddit and subscribes its creator.
	CreateSubreddit(ctx context.Context, sub *models.Subreddit) error
	GetSubreddit(ctx context.Context, subredditID string) (*models.Subreddit, error)
	Subscribe(ctx context.Context, userID, subredditID string) error
	Unsubscribe(ctx context.Context, userID, subredditID string) error
	IsSubscribed(ctx context.Context, userID, subredditID string) (bool, error)
	SubscribedSubredditIDs(ctx context.Context, userID string) ([]string, error)
}

// CommentStore persists comments.
type CommentStore interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, commentID string) (*models.Comment, error)
	// ListComments loads a post's comments with author and votes, oldest first.
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
	// DeleteComment removes a comment and its votes and detaches its replies.
	DeleteComment(ctx context.Context, commentID string) error
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// Store is everything the service layer needs.
type Store interface {
	VoteStore
	PostStore
	CommunityStore
	CommentStore
	UserStore
}
