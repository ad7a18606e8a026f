// Package cache is the hot-post read copy kept in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/emilythestrangee/breadit/backend/internal/vote"
)

// ErrMiss is returned by Get when no entry exists.
var ErrMiss = errors.New("cache: miss")

// CachedPost is the denormalized projection written once a post is hot.
type CachedPost struct {
	ID             string
	Title          string
	AuthorUsername string
	SubredditName  string
	// Content is the serialized rich-text document.
	Content string
	// CurrentVote is always None in the cache; readers overlay their own vote.
	CurrentVote vote.Type
	CreatedAt   time.Time
}

// PostCache stores CachedPost entries.
type PostCache interface {
	Put(ctx context.Context, p CachedPost, ttl time.Duration) error
	Get(ctx context.Context, postID string) (*CachedPost, error)
	Invalidate(ctx context.Context, postID string) error
}

// Key is the redis key of a post entry.
func Key(postID string) string {
	return fmt.Sprintf("post:%s", postID)
}

// RedisCache implements PostCache as one hash per post.
type RedisCache struct {
	client redis.Cmdable
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

func encodeVote(t vote.Type) string {
	if t == vote.None {
		return "null"
	}
	b, _ := json.Marshal(string(t))
	return string(b)
}

func decodeVote(s string) vote.Type {
	var v *string
	if err := json.Unmarshal([]byte(s), &v); err != nil || v == nil {
		return vote.None
	}
	return vote.Type(*v)
}

// Put writes the hash and sets its expiry in one transaction. A zero ttl
// leaves the entry without expiry.
func (c *RedisCache) Put(ctx context.Context, p CachedPost, ttl time.Duration) error {
	key := Key(p.ID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, map[string]interface{}{
			"id":             p.ID,
			"title":          p.Title,
			"authorUsername": p.AuthorUsername,
			"subredditName":  p.SubredditName,
			"content":        p.Content,
			"currentVote":    encodeVote(p.CurrentVote),
			"createdAt":      p.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache: put %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, postID string) (*CachedPost, error) {
	fields, err := c.client.HGetAll(ctx, Key(postID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache: get %s: %w", Key(postID), err)
	}
	if len(fields) == 0 {
		return nil, ErrMiss
	}

	createdAt, err := time.Parse(time.RFC3339Nano, fields["createdAt"])
	if err != nil {
		return nil, fmt.Errorf("cache: bad createdAt for %s: %w", Key(postID), err)
	}

	return &CachedPost{
		ID:             fields["id"],
		Title:          fields["title"],
		AuthorUsername: fields["authorUsername"],
		SubredditName:  fields["subredditName"],
		Content:        fields["content"],
		CurrentVote:    decodeVote(fields["currentVote"]),
		CreatedAt:      createdAt,
	}, nil
}

func (c *RedisCache) Invalidate(ctx context.Context, postID string) error {
	if err := c.client.Del(ctx, Key(postID)).Err(); err != nil {
		return fmt.Errorf("cache: invalidate %s: %w", Key(postID), err)
	}
	return nil
}

// Ping checks the redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
