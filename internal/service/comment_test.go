package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/breadit/backend/internal/apperr"
	"github.com/emilythestrangee/breadit/backend/internal/models"
	"github.com/emilythestrangee/breadit/backend/internal/vote"
)

func TestComments(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())
	ctx := context.Background()

	root, err := env.comments.Create(ctx, env.bob.ID, models.CreateCommentRequest{PostID: env.post.ID, Text: "first"})
	require.NoError(t, err)
	assert.Nil(t, root.ReplyToID)

	reply, err := env.comments.Create(ctx, env.alice.ID, models.CreateCommentRequest{
		PostID:    env.post.ID,
		Text:      "reply",
		ReplyToID: &root.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, reply.ReplyToID)
	assert.Equal(t, root.ID, *reply.ReplyToID)

	_, err = env.votes.VoteComment(ctx, env.alice.ID, root.ID, vote.Up)
	require.NoError(t, err)

	views, err := env.comments.List(ctx, env.alice.ID, env.post.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	var rootView models.CommentView
	for _, v := range views {
		if v.ID == root.ID {
			rootView = v
		}
	}
	assert.Equal(t, 1, rootView.VotesAmount)
	assert.Equal(t, vote.Up, rootView.CurrentVote)
	assert.Equal(t, "bob", rootView.Author.Username)

	t.Run("reply to unknown comment", func(t *testing.T) {
		missing := "nope"
		_, err := env.comments.Create(ctx, env.bob.ID, models.CreateCommentRequest{
			PostID: env.post.ID, Text: "x", ReplyToID: &missing,
		})
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("unknown post", func(t *testing.T) {
		_, err := env.comments.Create(ctx, env.bob.ID, models.CreateCommentRequest{PostID: "nope", Text: "x"})
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

		_, err = env.comments.List(ctx, "", "nope")
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("delete", func(t *testing.T) {
		err := env.comments.Delete(ctx, env.alice.ID, root.ID)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

		require.NoError(t, env.comments.Delete(ctx, env.bob.ID, root.ID))

		views, err := env.comments.List(ctx, "", env.post.ID)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Nil(t, views[0].ReplyToID)
	})
}
