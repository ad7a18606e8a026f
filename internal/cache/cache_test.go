package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/breadit/backend/internal/vote"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client), mr
}

func TestRedisCachePutGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := c.Put(ctx, CachedPost{
		ID:             "p1",
		Title:          "Hello",
		AuthorUsername: "alice",
		SubredditName:  "golang",
		Content:        `{"blocks":[]}`,
		CreatedAt:      created,
	}, time.Hour)
	require.NoError(t, err)

	// layout seen by other readers of the hash
	assert.Equal(t, "alice", mr.HGet("post:p1", "authorUsername"))
	assert.Equal(t, "null", mr.HGet("post:p1", "currentVote"))
	assert.Equal(t, `{"blocks":[]}`, mr.HGet("post:p1", "content"))
	assert.Equal(t, "p1", mr.HGet("post:p1", "id"))
	assert.Equal(t, time.Hour, mr.TTL("post:p1"))

	got, err := c.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, "golang", got.SubredditName)
	assert.Equal(t, vote.None, got.CurrentVote)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestRedisCacheMissAndExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Put(ctx, CachedPost{ID: "p2", CreatedAt: time.Now()}, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err = c.Get(ctx, "p2")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisCacheInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, CachedPost{ID: "p3", CreatedAt: time.Now()}, 0))
	assert.True(t, mr.Exists("post:p3"))
	assert.Zero(t, mr.TTL("post:p3"))

	require.NoError(t, c.Invalidate(ctx, "p3"))
	assert.False(t, mr.Exists("post:p3"))

	// invalidating a missing entry is not an error
	require.NoError(t, c.Invalidate(ctx, "p3"))
}

func TestRedisCacheUnavailable(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	err := c.Put(context.Background(), CachedPost{ID: "p4", CreatedAt: time.Now()}, time.Minute)
	assert.Error(t, err)
	assert.Error(t, c.Ping(context.Background()))
}

func TestVoteEncoding(t *testing.T) {
	assert.Equal(t, "null", encodeVote(vote.None))
	assert.Equal(t, `"UP"`, encodeVote(vote.Up))
	assert.Equal(t, vote.Down, decodeVote(`"DOWN"`))
	assert.Equal(t, vote.None, decodeVote("null"))
	assert.Equal(t, vote.None, decodeVote("garbage"))
}
