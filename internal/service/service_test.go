package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/emilythestrangee/breadit/backend/internal/auth"
	"github.com/emilythestrangee/breadit/backend/internal/cache"
	"github.com/emilythestrangee/breadit/backend/internal/metrics"
	"github.com/emilythestrangee/breadit/backend/internal/models"
	"github.com/emilythestrangee/breadit/backend/internal/store"
)

type testEnv struct {
	store   *store.MemoryStore
	redis   *miniredis.Miniredis
	metrics *metrics.Metrics

	votes       *VoteService
	posts       *PostService
	communities *CommunityService
	comments    *CommentService
	auth        *AuthService

	alice, bob models.User
	golang     models.Subreddit
	post       models.Post
}

func newTestEnv(t *testing.T, policy HotPolicy) *testEnv {
	t.Helper()
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := store.NewMemoryStore()
	c := cache.NewRedisCache(client)
	m := metrics.New()
	log := zap.NewNop()

	env := &testEnv{
		store:       s,
		redis:       mr,
		metrics:     m,
		votes:       NewVoteService(s, s, c, policy, m, log),
		posts:       NewPostService(s, s, s, c, log),
		communities: NewCommunityService(s, log),
		comments:    NewCommentService(s, s, log),
		auth:        NewAuthService(s, auth.NewTokens("test-secret", time.Hour), log),
	}
	env.auth.cost = bcrypt.MinCost

	env.alice = models.User{Username: "alice", Email: "alice@example.com", Password: "x"}
	env.bob = models.User{Username: "bob", Email: "bob@example.com", Password: "x"}
	require.NoError(t, s.CreateUser(ctx, &env.alice))
	require.NoError(t, s.CreateUser(ctx, &env.bob))

	env.golang = models.Subreddit{Name: "golang", CreatorID: env.alice.ID}
	require.NoError(t, s.CreateSubreddit(ctx, &env.golang))

	env.post = models.Post{
		Title:       "Hello",
		Content:     `{"blocks":[]}`,
		AuthorID:    env.alice.ID,
		SubredditID: env.golang.ID,
	}
	require.NoError(t, s.CreatePost(ctx, &env.post))
	return env
}

func defaultPolicy() HotPolicy {
	return HotPolicy{Threshold: 1, TTL: time.Hour}
}

// counterValue reads one counter series from the env's registry; zero when
// the series has not been observed.
func counterValue(t *testing.T, env *testEnv, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := env.metrics.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	series:
		for _, m := range f.GetMetric() {
			if len(m.GetLabel()) != len(labels) {
				continue
			}
			for _, l := range m.GetLabel() {
				if labels[l.GetName()] != l.GetValue() {
					continue series
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}
