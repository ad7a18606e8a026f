package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/breadit/backend/internal/models"
	"github.com/emilythestrangee/breadit/backend/internal/vote"
)

// GormStore implements Store on top of gorm.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ Store = (*GormStore)(nil)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func (s *GormStore) exists(ctx context.Context, model any, id string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *GormStore) PostExists(ctx context.Context, postID string) (bool, error) {
	return s.exists(ctx, &models.Post{}, postID)
}

func (s *GormStore) CommentExists(ctx context.Context, commentID string) (bool, error) {
	return s.exists(ctx, &models.Comment{}, commentID)
}

// voteTable describes one of the two vote tables.
type voteTable struct {
	model     func() any
	targetCol string
	newRow    func(userID, targetID string, t vote.Type) any
}

var (
	postVotes = voteTable{
		model:     func() any { return &models.Vote{} },
		targetCol: "post_id",
		newRow: func(userID, targetID string, t vote.Type) any {
			return &models.Vote{UserID: userID, PostID: targetID, Type: t}
		},
	}
	commentVotes = voteTable{
		model:     func() any { return &models.CommentVote{} },
		targetCol: "comment_id",
		newRow: func(userID, targetID string, t vote.Type) any {
			return &models.CommentVote{UserID: userID, CommentID: targetID, Type: t}
		},
	}
)

func (s *GormStore) UpsertPostVote(ctx context.Context, userID, postID string, t vote.Type) (vote.Outcome, error) {
	return s.upsertVote(ctx, postVotes, userID, postID, t)
}

func (s *GormStore) UpsertCommentVote(ctx context.Context, userID, commentID string, t vote.Type) (vote.Outcome, error) {
	return s.upsertVote(ctx, commentVotes, userID, commentID, t)
}

// upsertVote runs find-then-write in a transaction. Two concurrent first
// votes by the same user race on the primary key; the loser retries once
// and then sees the winner's row.
func (s *GormStore) upsertVote(ctx context.Context, tbl voteTable, userID, targetID string, t vote.Type) (vote.Outcome, error) {
	outcome, err := s.upsertVoteOnce(ctx, tbl, userID, targetID, t)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		outcome, err = s.upsertVoteOnce(ctx, tbl, userID, targetID, t)
	}
	return outcome, translate(err)
}

func (s *GormStore) upsertVoteOnce(ctx context.Context, tbl voteTable, userID, targetID string, t vote.Type) (vote.Outcome, error) {
	var outcome vote.Outcome
	cond := fmt.Sprintf("user_id = ? AND %s = ?", tbl.targetCol)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing struct{ Type vote.Type }
		err := tx.Model(tbl.model()).Select("type").Where(cond, userID, targetID).Take(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var next vote.Type
		outcome, next = vote.Resolve(existing.Type, t)

		switch outcome {
		case vote.Created:
			return tx.Create(tbl.newRow(userID, targetID, next)).Error
		case vote.Removed:
			return tx.Where(cond, userID, targetID).Delete(tbl.model()).Error
		default:
			return tx.Model(tbl.model()).Where(cond, userID, targetID).Update("type", next).Error
		}
	})
	return outcome, err
}

func (s *GormStore) voteTypes(ctx context.Context, tbl voteTable, targetID string) ([]vote.Type, error) {
	var types []vote.Type
	err := s.db.WithContext(ctx).Model(tbl.model()).
		Where(tbl.targetCol+" = ?", targetID).
		Pluck("type", &types).Error
	return types, err
}

func (s *GormStore) PostVoteTypes(ctx context.Context, postID string) ([]vote.Type, error) {
	return s.voteTypes(ctx, postVotes, postID)
}

func (s *GormStore) CommentVoteTypes(ctx context.Context, commentID string) ([]vote.Type, error) {
	return s.voteTypes(ctx, commentVotes, commentID)
}

func (s *GormStore) UserPostVote(ctx context.Context, userID, postID string) (vote.Type, error) {
	var v models.Vote
	err := s.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Take(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return vote.None, nil
	}
	return v.Type, err
}

func (s *GormStore) CreatePost(ctx context.Context, post *models.Post) error {
	return translate(s.db.WithContext(ctx).Create(post).Error)
}

func (s *GormStore) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("Author").Preload("Subreddit").
		Where("id = ?", postID).Take(&post).Error
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (s *GormStore) UpdatePost(ctx context.Context, post *models.Post) error {
	res := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", post.ID).
		Updates(map[string]any{"title": post.Title, "content": post.Content})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeletePost(ctx context.Context, postID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", postID)
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&models.CommentVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", postID).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *GormStore) ListPosts(ctx context.Context, q FeedQuery) ([]models.Post, error) {
	if q.RestrictToSubreddits && len(q.SubredditIDs) == 0 {
		return []models.Post{}, nil
	}

	tx := s.db.WithContext(ctx).
		Preload("Author").Preload("Subreddit").Preload("Votes").
		Order("posts.created_at desc").
		Limit(q.Limit).Offset(q.Offset)

	switch {
	case q.SubredditName != "":
		tx = tx.Joins("JOIN subreddits ON subreddits.id = posts.subreddit_id").
			Where("subreddits.name = ?", q.SubredditName)
	case q.RestrictToSubreddits:
		tx = tx.Where("posts.subreddit_id IN ?", q.SubredditIDs)
	}

	var posts []models.Post
	if err := tx.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *GormStore) CountComments(ctx context.Context, postIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		PostID string
		N      int
	}
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, count(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.PostID] = r.N
	}
	return counts, nil
}

func (s *GormStore) CreateSubreddit(ctx context.Context, sub *models.Subreddit) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sub).Error; err != nil {
			return err
		}
		return tx.Create(&models.Subscription{UserID: sub.CreatorID, SubredditID: sub.ID}).Error
	})
	return translate(err)
}

func (s *GormStore) GetSubreddit(ctx context.Context, subredditID string) (*models.Subreddit, error) {
	var sub models.Subreddit
	if err := s.db.WithContext(ctx).Where("id = ?", subredditID).Take(&sub).Error; err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (s *GormStore) Subscribe(ctx context.Context, userID, subredditID string) error {
	sub := models.Subscription{UserID: userID, SubredditID: subredditID}
	return translate(s.db.WithContext(ctx).Create(&sub).Error)
}

func (s *GormStore) Unsubscribe(ctx context.Context, userID, subredditID string) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND subreddit_id = ?", userID, subredditID).
		Delete(&models.Subscription{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) IsSubscribed(ctx context.Context, userID, subredditID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND subreddit_id = ?", userID, subredditID).
		Count(&n).Error
	return n > 0, err
}

func (s *GormStore) SubscribedSubredditIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ?", userID).
		Pluck("subreddit_id", &ids).Error
	return ids, err
}

func (s *GormStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	return translate(s.db.WithContext(ctx).Create(comment).Error)
}

func (s *GormStore) GetComment(ctx context.Context, commentID string) (*models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).Preload("Author").Where("id = ?", commentID).Take(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Preload("Author").Preload("Votes").
		Where("post_id = ?", postID).
		Order("created_at asc").
		Find(&comments).Error
	return comments, err
}

func (s *GormStore) DeleteComment(ctx context.Context, commentID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", commentID).Delete(&models.CommentVote{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).Where("reply_to_id = ?", commentID).
			Update("reply_to_id", nil).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", commentID).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).Take(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}
