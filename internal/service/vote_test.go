package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/breadit/backend/internal/apperr"
	"github.com/emilythestrangee/breadit/backend/internal/cache"
	"github.com/emilythestrangee/breadit/backend/internal/models"
	"github.com/emilythestrangee/breadit/backend/internal/vote"
)

func tally(t *testing.T, env *testEnv, postID string) int {
	t.Helper()
	types, err := env.store.PostVoteTypes(context.Background(), postID)
	require.NoError(t, err)
	return vote.Tally(types)
}

func TestVotePostToggleParity(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())
	ctx := context.Background()

	outcome, err := env.votes.VotePost(ctx, env.bob.ID, env.post.ID, vote.Up)
	require.NoError(t, err)
	assert.Equal(t, vote.Created, outcome)
	assert.Equal(t, "No existing vote: OK", outcome.Message())
	assert.Equal(t, 1, tally(t, env, env.post.ID))

	outcome, err = env.votes.VotePost(ctx, env.bob.ID, env.post.ID, vote.Up)
	require.NoError(t, err)
	assert.Equal(t, vote.Removed, outcome)
	assert.Equal(t, "Same vote type: OK", outcome.Message())
	assert.Equal(t, 0, tally(t, env, env.post.ID))

	current, err := env.store.UserPostVote(ctx, env.bob.ID, env.post.ID)
	require.NoError(t, err)
	assert.Equal(t, vote.None, current)
}

func TestVotePostSwitchMovesTallyByTwo(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())
	ctx := context.Background()

	_, err := env.votes.VotePost(ctx, env.bob.ID, env.post.ID, vote.Down)
	require.NoError(t, err)
	assert.Equal(t, -1, tally(t, env, env.post.ID))

	outcome, err := env.votes.VotePost(ctx, env.bob.ID, env.post.ID, vote.Up)
	require.NoError(t, err)
	assert.Equal(t, vote.Changed, outcome)
	assert.Equal(t, "Different vote type: OK", outcome.Message())
	assert.Equal(t, 1, tally(t, env, env.post.ID))
}

func TestVotePostWritesHotPostToCache(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())
	ctx := context.Background()

	_, err := env.votes.VotePost(ctx, env.bob.ID, env.post.ID, vote.Up)
	require.NoError(t, err)

	key := cache.Key(env.post.ID)
	require.True(t, env.redis.Exists(key))
	assert.Equal(t, env.post.ID, env.redis.HGet(key, "id"))
	assert.Equal(t, "Hello", env.redis.HGet(key, "title"))
	assert.Equal(t, "alice", env.redis.HGet(key, "authorUsername"))
	assert.Equal(t, `{"blocks":[]}`, env.redis.HGet(key, "content"))
	assert.Equal(t, "null", env.redis.HGet(key, "currentVote"))
	assert.Equal(t, time.Hour, env.redis.TTL(key))

	assert.Equal(t, 1.0, counterValue(t, env, "breadit_vote_cache_ops_total", map[string]string{"op": "write"}))
}

func TestVotePostDropsCacheBelowThreshold(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())
	ctx := context.Background()

	_, err := env.votes.VotePost(ctx, env.bob.ID, env.post.ID, vote.Up)
	require.NoError(t, err)
	require.True(t, env.redis.Exists(cache.Key(env.post.ID)))

	_, err = env.votes.VotePost(ctx, env.bob.ID, env.post.ID, vote.Down)
	require.NoError(t, err)
	assert.False(t, env.redis.Exists(cache.Key(env.post.ID)))
}

func TestVotePostHigherThreshold(t *testing.T) {
	env := newTestEnv(t, HotPolicy{Threshold: 2})
	ctx := context.Background()

	_, err := env.votes.VotePost(ctx, env.bob.ID, env.post.ID, vote.Up)
	require.NoError(t, err)
	assert.False(t, env.redis.Exists(cache.Key(env.post.ID)))

	_, err = env.votes.VotePost(ctx, env.alice.ID, env.post.ID, vote.Up)
	require.NoError(t, err)
	key := cache.Key(env.post.ID)
	assert.True(t, env.redis.Exists(key))
	// zero TTL keeps the entry until it is invalidated
	assert.Equal(t, time.Duration(0), env.redis.TTL(key))
}

func TestVotePostCacheFailureKeepsVote(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())
	ctx := context.Background()
	env.redis.Close()

	outcome, err := env.votes.VotePost(ctx, env.bob.ID, env.post.ID, vote.Up)
	require.NoError(t, err)
	assert.Equal(t, vote.Created, outcome)
	assert.Equal(t, 1, tally(t, env, env.post.ID))
	assert.Equal(t, 1.0, counterValue(t, env, "breadit_vote_cache_ops_total", map[string]string{"op": "error"}))
}

func TestVotePostConcurrentVotersSettleCache(t *testing.T) {
	tests := []struct {
		name     string
		up, down int
		hot      bool
	}{
		{"balanced", 10, 10, false},
		{"one ahead", 11, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, defaultPolicy())
			ctx := context.Background()

			types := make([]vote.Type, 0, tt.up+tt.down)
			for range tt.up {
				types = append(types, vote.Up)
			}
			for range tt.down {
				types = append(types, vote.Down)
			}

			voters := make([]models.User, len(types))
			for i := range voters {
				voters[i] = models.User{
					Username: fmt.Sprintf("voter%d", i),
					Email:    fmt.Sprintf("voter%d@example.com", i),
					Password: "x",
				}
				require.NoError(t, env.store.CreateUser(ctx, &voters[i]))
			}

			var wg sync.WaitGroup
			errs := make(chan error, len(voters))
			for i := range voters {
				wg.Add(1)
				go func(u models.User, vt vote.Type) {
					defer wg.Done()
					if _, err := env.votes.VotePost(ctx, u.ID, env.post.ID, vt); err != nil {
						errs <- err
					}
				}(voters[i], types[i])
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.up-tt.down, tally(t, env, env.post.ID))
			assert.Equal(t, tt.hot, env.redis.Exists(cache.Key(env.post.ID)))
		})
	}
}

func TestVotePostRejections(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())
	ctx := context.Background()

	tests := []struct {
		name    string
		voterID string
		postID  string
		vote    vote.Type
		kind    apperr.Kind
	}{
		{"unauthenticated", "", env.post.ID, vote.Up, apperr.KindUnauthenticated},
		{"missing post", env.bob.ID, "nope", vote.Up, apperr.KindNotFound},
		{"bad vote type", env.bob.ID, env.post.ID, vote.Type("SIDEWAYS"), apperr.KindValidation},
		{"empty vote type", env.bob.ID, env.post.ID, vote.None, apperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.votes.VotePost(ctx, tt.voterID, tt.postID, tt.vote)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			assert.Equal(t, 0, tally(t, env, env.post.ID))
			assert.False(t, env.redis.Exists(cache.Key(env.post.ID)))
		})
	}
}

func TestVoteComment(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())
	ctx := context.Background()

	comment := &models.Comment{Text: "first", AuthorID: env.alice.ID, PostID: env.post.ID}
	require.NoError(t, env.store.CreateComment(ctx, comment))

	outcome, err := env.votes.VoteComment(ctx, env.bob.ID, comment.ID, vote.Down)
	require.NoError(t, err)
	assert.Equal(t, vote.Created, outcome)

	outcome, err = env.votes.VoteComment(ctx, env.bob.ID, comment.ID, vote.Up)
	require.NoError(t, err)
	assert.Equal(t, vote.Changed, outcome)

	types, err := env.store.CommentVoteTypes(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, vote.Tally(types))

	_, err = env.votes.VoteComment(ctx, env.bob.ID, "nope", vote.Up)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = env.votes.VoteComment(ctx, "", comment.ID, vote.Up)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	assert.Equal(t, 1.0, counterValue(t, env, "breadit_votes_total", map[string]string{"target": "comment", "outcome": "changed"}))
}
