package service

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/emilythestrangee/breadit/backend/internal/apperr"
	"github.com/emilythestrangee/breadit/backend/internal/cache"
	"github.com/emilythestrangee/breadit/backend/internal/models"
	"github.com/emilythestrangee/breadit/backend/internal/store"
	"github.com/emilythestrangee/breadit/backend/internal/vote"
)

const (
	msgCreatePostFailed = "Could not create new post"
	msgFeedFailed       = "Could not fetch more posts. Please try later"
	msgNotSubscribed    = "You must be subscribed to a community to create a post there"

	// MaxFeedLimit caps the page size a client may request.
	MaxFeedLimit = 50
)

// FeedRequest is a validated feed page request. Page is 1-based.
type FeedRequest struct {
	SubredditName string
	Limit         int
	Page          int
}

type PostService struct {
	posts       store.PostStore
	votes       store.VoteStore
	communities store.CommunityStore
	cache       cache.PostCache
	logger      *zap.Logger
}

func NewPostService(posts store.PostStore, votes store.VoteStore, communities store.CommunityStore, c cache.PostCache, logger *zap.Logger) *PostService {
	return &PostService{
		posts:       posts,
		votes:       votes,
		communities: communities,
		cache:       c,
		logger:      logger,
	}
}

// rawContent keeps the client's document verbatim; absent content is JSON null.
func rawContent(content json.RawMessage) string {
	if len(content) == 0 {
		return "null"
	}
	return string(content)
}

// Create stores a post in a subreddit the author is subscribed to.
func (s *PostService) Create(ctx context.Context, authorID string, req models.CreatePostRequest) (*models.Post, error) {
	if authorID == "" {
		return nil, apperr.Unauthenticated(msgUnauthorized)
	}
	if len(req.Content) > 0 && !json.Valid(req.Content) {
		return nil, apperr.Validation("Invalid request data passed", nil)
	}

	ok, err := s.communities.IsSubscribed(ctx, authorID, req.SubredditID)
	if err != nil {
		return nil, apperr.Persistence(msgCreatePostFailed, err)
	}
	if !ok {
		return nil, apperr.Conflict(msgNotSubscribed)
	}

	post := &models.Post{
		Title:       req.Title,
		Content:     rawContent(req.Content),
		AuthorID:    authorID,
		SubredditID: req.SubredditID,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, apperr.Persistence(msgCreatePostFailed, err)
	}
	return post, nil
}

// Feed returns one page of posts, newest first. A named subreddit wins;
// otherwise a signed-in viewer sees their subscriptions and anyone else
// sees every community.
func (s *PostService) Feed(ctx context.Context, viewerID string, req FeedRequest) ([]models.PostSummary, error) {
	if req.Limit < 1 || req.Limit > MaxFeedLimit || req.Page < 1 {
		return nil, apperr.Validation("Invalid request data passed", nil)
	}

	q := store.FeedQuery{
		SubredditName: req.SubredditName,
		Limit:         req.Limit,
		Offset:        (req.Page - 1) * req.Limit,
	}
	if req.SubredditName == "" && viewerID != "" {
		ids, err := s.communities.SubscribedSubredditIDs(ctx, viewerID)
		if err != nil {
			return nil, apperr.Persistence(msgFeedFailed, err)
		}
		q.SubredditIDs = ids
		q.RestrictToSubreddits = true
	}

	posts, err := s.posts.ListPosts(ctx, q)
	if err != nil {
		return nil, apperr.Persistence(msgFeedFailed, err)
	}

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	counts, err := s.posts.CountComments(ctx, ids)
	if err != nil {
		return nil, apperr.Persistence(msgFeedFailed, err)
	}

	out := make([]models.PostSummary, 0, len(posts))
	for _, p := range posts {
		types := make([]vote.Type, len(p.Votes))
		current := vote.None
		for i, v := range p.Votes {
			types[i] = v.Type
			if v.UserID == viewerID {
				current = v.Type
			}
		}
		out = append(out, models.PostSummary{
			ID:             p.ID,
			Title:          p.Title,
			Content:        json.RawMessage(p.Content),
			AuthorUsername: p.Author.Username,
			SubredditName:  p.Subreddit.Name,
			VotesAmount:    vote.Tally(types),
			CurrentVote:    current,
			CommentAmount:  counts[p.ID],
			CreatedAt:      p.CreatedAt,
		})
	}
	return out, nil
}

// Get returns a single post, served from the hot-post cache when present.
// The tally and the viewer's own vote are always read fresh.
func (s *PostService) Get(ctx context.Context, viewerID, postID string) (*models.PostSummary, error) {
	summary, err := s.fromCache(ctx, postID)
	if err != nil {
		post, err := s.posts.GetPost(ctx, postID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound(msgPostNotFound)
		}
		if err != nil {
			return nil, apperr.Persistence("Could not fetch post", err)
		}
		summary = &models.PostSummary{
			ID:             post.ID,
			Title:          post.Title,
			Content:        json.RawMessage(post.Content),
			AuthorUsername: post.Author.Username,
			SubredditName:  post.Subreddit.Name,
			CreatedAt:      post.CreatedAt,
		}
	}

	types, err := s.votes.PostVoteTypes(ctx, postID)
	if err != nil {
		return nil, apperr.Persistence("Could not fetch post", err)
	}
	summary.VotesAmount = vote.Tally(types)

	if viewerID != "" {
		summary.CurrentVote, err = s.votes.UserPostVote(ctx, viewerID, postID)
		if err != nil {
			return nil, apperr.Persistence("Could not fetch post", err)
		}
	}

	counts, err := s.posts.CountComments(ctx, []string{postID})
	if err != nil {
		return nil, apperr.Persistence("Could not fetch post", err)
	}
	summary.CommentAmount = counts[postID]
	return summary, nil
}

func (s *PostService) fromCache(ctx context.Context, postID string) (*models.PostSummary, error) {
	cached, err := s.cache.Get(ctx, postID)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("cache read failed", zap.String("post_id", postID), zap.Error(err))
		}
		return nil, err
	}
	return &models.PostSummary{
		ID:             cached.ID,
		Title:          cached.Title,
		Content:        json.RawMessage(cached.Content),
		AuthorUsername: cached.AuthorUsername,
		SubredditName:  cached.SubredditName,
		CreatedAt:      cached.CreatedAt,
	}, nil
}

func (s *PostService) ownedPost(ctx context.Context, userID, postID, verb string) (*models.Post, error) {
	if userID == "" {
		return nil, apperr.Unauthenticated(msgUnauthorized)
	}
	post, err := s.posts.GetPost(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(msgPostNotFound)
	}
	if err != nil {
		return nil, apperr.Persistence("Could not "+verb+" post", err)
	}
	if post.AuthorID != userID {
		return nil, apperr.Forbidden("You can only " + verb + " your own posts")
	}
	return post, nil
}

// Update edits title and content and drops the post's cache entry.
func (s *PostService) Update(ctx context.Context, userID, postID string, req models.UpdatePostRequest) (*models.Post, error) {
	post, err := s.ownedPost(ctx, userID, postID, "edit")
	if err != nil {
		return nil, err
	}
	if len(req.Content) > 0 && !json.Valid(req.Content) {
		return nil, apperr.Validation("Invalid request data passed", nil)
	}

	if req.Title != "" {
		post.Title = req.Title
	}
	if len(req.Content) > 0 {
		post.Content = rawContent(req.Content)
	}
	if err := s.posts.UpdatePost(ctx, post); err != nil {
		return nil, apperr.Persistence("Could not edit post", err)
	}
	s.invalidate(ctx, postID)
	return post, nil
}

// Delete removes the post with its comments and votes and drops its cache entry.
func (s *PostService) Delete(ctx context.Context, userID, postID string) error {
	if _, err := s.ownedPost(ctx, userID, postID, "delete"); err != nil {
		return err
	}
	if err := s.posts.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(msgPostNotFound)
		}
		return apperr.Persistence("Could not delete post", err)
	}
	s.invalidate(ctx, postID)
	return nil
}

func (s *PostService) invalidate(ctx context.Context, postID string) {
	if err := s.cache.Invalidate(ctx, postID); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("post_id", postID), zap.Error(err))
	}
}
