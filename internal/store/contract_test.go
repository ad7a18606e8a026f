package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/breadit/backend/internal/models"
	"github.com/emilythestrangee/breadit/backend/internal/vote"
)

type fixture struct {
	alice, bob models.User
	golang     models.Subreddit
	rust       models.Subreddit
	post       models.Post
}

func seed(t *testing.T, s Store) fixture {
	t.Helper()
	ctx := context.Background()

	f := fixture{
		alice: models.User{Username: "alice", Email: "alice@example.com", Password: "x"},
		bob:   models.User{Username: "bob", Email: "bob@example.com", Password: "x"},
	}
	require.NoError(t, s.CreateUser(ctx, &f.alice))
	require.NoError(t, s.CreateUser(ctx, &f.bob))

	f.golang = models.Subreddit{Name: "golang", CreatorID: f.alice.ID}
	require.NoError(t, s.CreateSubreddit(ctx, &f.golang))
	f.rust = models.Subreddit{Name: "rust", CreatorID: f.bob.ID}
	require.NoError(t, s.CreateSubreddit(ctx, &f.rust))

	f.post = models.Post{Title: "Hello", Content: `{"blocks":[]}`, AuthorID: f.alice.ID, SubredditID: f.golang.ID}
	require.NoError(t, s.CreatePost(ctx, &f.post))
	return f
}

// runStoreContract exercises behaviour every Store implementation shares.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("vote toggle and flip", func(t *testing.T) {
		s := newStore(t)
		f := seed(t, s)
		ctx := context.Background()

		outcome, err := s.UpsertPostVote(ctx, f.alice.ID, f.post.ID, vote.Up)
		require.NoError(t, err)
		assert.Equal(t, vote.Created, outcome)

		outcome, err = s.UpsertPostVote(ctx, f.bob.ID, f.post.ID, vote.Up)
		require.NoError(t, err)
		assert.Equal(t, vote.Created, outcome)

		types, err := s.PostVoteTypes(ctx, f.post.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, vote.Tally(types))

		outcome, err = s.UpsertPostVote(ctx, f.bob.ID, f.post.ID, vote.Down)
		require.NoError(t, err)
		assert.Equal(t, vote.Changed, outcome)

		types, err = s.PostVoteTypes(ctx, f.post.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, vote.Tally(types))

		outcome, err = s.UpsertPostVote(ctx, f.alice.ID, f.post.ID, vote.Up)
		require.NoError(t, err)
		assert.Equal(t, vote.Removed, outcome)

		current, err := s.UserPostVote(ctx, f.alice.ID, f.post.ID)
		require.NoError(t, err)
		assert.Equal(t, vote.None, current)

		current, err = s.UserPostVote(ctx, f.bob.ID, f.post.ID)
		require.NoError(t, err)
		assert.Equal(t, vote.Down, current)
	})

	t.Run("comment votes", func(t *testing.T) {
		s := newStore(t)
		f := seed(t, s)
		ctx := context.Background()

		c := models.Comment{Text: "nice", AuthorID: f.bob.ID, PostID: f.post.ID}
		require.NoError(t, s.CreateComment(ctx, &c))

		ok, err := s.CommentExists(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = s.UpsertCommentVote(ctx, f.alice.ID, c.ID, vote.Down)
		require.NoError(t, err)

		types, err := s.CommentVoteTypes(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, -1, vote.Tally(types))

		comments, err := s.ListComments(ctx, f.post.ID)
		require.NoError(t, err)
		require.Len(t, comments, 1)
		assert.Equal(t, "bob", comments[0].Author.Username)
		assert.Len(t, comments[0].Votes, 1)

		require.NoError(t, s.DeleteComment(ctx, c.ID))
		types, err = s.CommentVoteTypes(ctx, c.ID)
		require.NoError(t, err)
		assert.Empty(t, types)
		assert.ErrorIs(t, s.DeleteComment(ctx, c.ID), ErrNotFound)
	})

	t.Run("feed filters and pages", func(t *testing.T) {
		s := newStore(t)
		f := seed(t, s)
		ctx := context.Background()

		base := time.Now().UTC().Add(-time.Hour)
		for i, sub := range []string{f.rust.ID, f.rust.ID, f.golang.ID} {
			p := models.Post{
				Title:       "post",
				AuthorID:    f.bob.ID,
				SubredditID: sub,
				CreatedAt:   base.Add(time.Duration(i+1) * time.Minute),
			}
			require.NoError(t, s.CreatePost(ctx, &p))
		}

		all, err := s.ListPosts(ctx, FeedQuery{Limit: 10})
		require.NoError(t, err)
		assert.Len(t, all, 4)
		for i := 1; i < len(all); i++ {
			assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt), "not newest first")
		}

		rust, err := s.ListPosts(ctx, FeedQuery{SubredditName: "rust", Limit: 10})
		require.NoError(t, err)
		assert.Len(t, rust, 2)
		for _, p := range rust {
			assert.Equal(t, "rust", p.Subreddit.Name)
		}

		page2, err := s.ListPosts(ctx, FeedQuery{Limit: 3, Offset: 3})
		require.NoError(t, err)
		assert.Len(t, page2, 1)

		none, err := s.ListPosts(ctx, FeedQuery{RestrictToSubreddits: true, Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, none)

		ids, err := s.SubscribedSubredditIDs(ctx, f.alice.ID)
		require.NoError(t, err)
		mine, err := s.ListPosts(ctx, FeedQuery{SubredditIDs: ids, RestrictToSubreddits: true, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, mine, 2)
	})

	t.Run("subscriptions", func(t *testing.T) {
		s := newStore(t)
		f := seed(t, s)
		ctx := context.Background()

		ok, err := s.IsSubscribed(ctx, f.alice.ID, f.golang.ID)
		require.NoError(t, err)
		assert.True(t, ok, "creator is subscribed")

		ok, err = s.IsSubscribed(ctx, f.alice.ID, f.rust.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Subscribe(ctx, f.alice.ID, f.rust.ID))
		assert.ErrorIs(t, s.Subscribe(ctx, f.alice.ID, f.rust.ID), ErrConflict)
		require.NoError(t, s.Unsubscribe(ctx, f.alice.ID, f.rust.ID))
		assert.ErrorIs(t, s.Unsubscribe(ctx, f.alice.ID, f.rust.ID), ErrNotFound)

		dup := models.Subreddit{Name: "golang", CreatorID: f.bob.ID}
		assert.ErrorIs(t, s.CreateSubreddit(ctx, &dup), ErrConflict)
	})

	t.Run("post lifecycle", func(t *testing.T) {
		s := newStore(t)
		f := seed(t, s)
		ctx := context.Background()

		got, err := s.GetPost(ctx, f.post.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Author.Username)
		assert.Equal(t, "golang", got.Subreddit.Name)

		got.Title = "Hello again"
		require.NoError(t, s.UpdatePost(ctx, got))

		got, err = s.GetPost(ctx, f.post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Hello again", got.Title)

		c := models.Comment{Text: "hi", AuthorID: f.bob.ID, PostID: f.post.ID}
		require.NoError(t, s.CreateComment(ctx, &c))
		counts, err := s.CountComments(ctx, []string{f.post.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, counts[f.post.ID])

		_, err = s.UpsertPostVote(ctx, f.bob.ID, f.post.ID, vote.Up)
		require.NoError(t, err)

		require.NoError(t, s.DeletePost(ctx, f.post.ID))

		_, err = s.GetPost(ctx, f.post.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		ok, err := s.PostExists(ctx, f.post.ID)
		require.NoError(t, err)
		assert.False(t, ok)
		types, err := s.PostVoteTypes(ctx, f.post.ID)
		require.NoError(t, err)
		assert.Empty(t, types)
	})

	t.Run("users", func(t *testing.T) {
		s := newStore(t)
		f := seed(t, s)
		ctx := context.Background()

		u, err := s.GetUserByEmail(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, f.bob.ID, u.ID)

		_, err = s.GetUserByID(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)

		dup := models.User{Username: "alice", Email: "alice@example.com", Password: "x"}
		assert.ErrorIs(t, s.CreateUser(ctx, &dup), ErrConflict)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(*testing.T) Store { return NewMemoryStore() })
}
