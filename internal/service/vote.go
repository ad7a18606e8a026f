// Package service holds the request-independent application logic the HTTP
// handlers delegate to. Every dependency is passed in at construction.
package service

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/emilythestrangee/breadit/backend/internal/apperr"
	"github.com/emilythestrangee/breadit/backend/internal/cache"
	"github.com/emilythestrangee/breadit/backend/internal/metrics"
	"github.com/emilythestrangee/breadit/backend/internal/models"
	"github.com/emilythestrangee/breadit/backend/internal/store"
	"github.com/emilythestrangee/breadit/backend/internal/vote"
)

const (
	msgUnauthorized  = "Unauthorized"
	msgVoteFailed    = "Could not register your vote at this time. Please try later"
	msgPostNotFound  = "Post not found"
	msgCommentMissed = "Comment not found"
)

// HotPolicy decides when a post is copied into the cache.
type HotPolicy struct {
	// Threshold is the net tally at or above which the post is cached.
	Threshold int
	TTL       time.Duration
}

const refreshStripes = 64

// VoteService applies votes and keeps the hot-post cache in step with tallies.
type VoteService struct {
	votes   store.VoteStore
	posts   store.PostStore
	cache   cache.PostCache
	policy  HotPolicy
	metrics *metrics.Metrics
	logger  *zap.Logger

	// refresh serializes recount plus cache write per post, so the last
	// writer always saw every vote committed before it.
	refresh [refreshStripes]sync.Mutex
}

func NewVoteService(votes store.VoteStore, posts store.PostStore, c cache.PostCache, policy HotPolicy, m *metrics.Metrics, logger *zap.Logger) *VoteService {
	return &VoteService{
		votes:   votes,
		posts:   posts,
		cache:   c,
		policy:  policy,
		metrics: m,
		logger:  logger,
	}
}

// VotePost creates, removes or flips voterID's vote on postID.
func (s *VoteService) VotePost(ctx context.Context, voterID, postID string, t vote.Type) (vote.Outcome, error) {
	if voterID == "" {
		return 0, apperr.Unauthenticated(msgUnauthorized)
	}
	if !t.Valid() {
		return 0, apperr.Validation("Invalid vote type", nil)
	}

	post, err := s.posts.GetPost(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, apperr.NotFound(msgPostNotFound)
	}
	if err != nil {
		return 0, apperr.Persistence(msgVoteFailed, err)
	}

	outcome, err := s.votes.UpsertPostVote(ctx, voterID, postID, t)
	if err != nil {
		return 0, apperr.Persistence(msgVoteFailed, err)
	}
	s.metrics.RecordVote("post", outcome.String())

	s.logger.Debug("post vote applied",
		zap.String("post_id", postID),
		zap.String("voter_id", voterID),
		zap.String("vote_type", string(t)),
		zap.Stringer("outcome", outcome),
	)

	s.refreshHotPost(ctx, post)
	return outcome, nil
}

func (s *VoteService) refreshLock(postID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(postID))
	return &s.refresh[h.Sum32()%refreshStripes]
}

// refreshHotPost recounts the post's votes and writes or drops its cache
// entry. The vote is already committed, so failures here are logged only.
// Recount and cache write happen under one per-post lock; replicas of the
// API do not share it, and a stale entry there lives until its TTL or the
// next vote on the post.
func (s *VoteService) refreshHotPost(ctx context.Context, post *models.Post) {
	mu := s.refreshLock(post.ID)
	mu.Lock()
	defer mu.Unlock()

	types, err := s.votes.PostVoteTypes(ctx, post.ID)
	if err != nil {
		s.metrics.RecordCacheOp("error")
		s.logger.Warn("recount votes failed", zap.String("post_id", post.ID), zap.Error(err))
		return
	}
	tally := vote.Tally(types)

	if tally < s.policy.Threshold {
		if err := s.cache.Invalidate(ctx, post.ID); err != nil {
			s.metrics.RecordCacheOp("error")
			s.logger.Warn("cache invalidate failed", zap.String("post_id", post.ID), zap.Error(err))
			return
		}
		s.metrics.RecordCacheOp("invalidate")
		return
	}

	err = s.cache.Put(ctx, cache.CachedPost{
		ID:             post.ID,
		Title:          post.Title,
		AuthorUsername: post.Author.Username,
		SubredditName:  post.Subreddit.Name,
		Content:        post.Content,
		CurrentVote:    vote.None,
		CreatedAt:      post.CreatedAt,
	}, s.policy.TTL)
	if err != nil {
		s.metrics.RecordCacheOp("error")
		s.logger.Warn("cache write failed", zap.String("post_id", post.ID), zap.Error(err))
		return
	}
	s.metrics.RecordCacheOp("write")
}

// VoteComment creates, removes or flips voterID's vote on commentID.
func (s *VoteService) VoteComment(ctx context.Context, voterID, commentID string, t vote.Type) (vote.Outcome, error) {
	if voterID == "" {
		return 0, apperr.Unauthenticated(msgUnauthorized)
	}
	if !t.Valid() {
		return 0, apperr.Validation("Invalid vote type", nil)
	}

	ok, err := s.votes.CommentExists(ctx, commentID)
	if err != nil {
		return 0, apperr.Persistence(msgVoteFailed, err)
	}
	if !ok {
		return 0, apperr.NotFound(msgCommentMissed)
	}

	outcome, err := s.votes.UpsertCommentVote(ctx, voterID, commentID, t)
	if err != nil {
		return 0, apperr.Persistence(msgVoteFailed, err)
	}
	s.metrics.RecordVote("comment", outcome.String())
	return outcome, nil
}
