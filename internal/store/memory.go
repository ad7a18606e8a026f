package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emilythestrangee/breadit/backend/internal/models"
	"github.com/emilythestrangee/breadit/backend/internal/vote"
)

type voteKey struct {
	userID   string
	targetID string
}

// MemoryStore is a process-local Store. One mutex guards every map, which
// gives it the same per-pair atomicity the database provides.
type MemoryStore struct {
	mu sync.Mutex

	users         map[string]models.User
	subreddits    map[string]models.Subreddit
	subscriptions map[voteKey]time.Time
	posts         map[string]models.Post
	comments      map[string]models.Comment
	postVotes     map[voteKey]vote.Type
	commentVotes  map[voteKey]vote.Type

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]models.User),
		subreddits:    make(map[string]models.Subreddit),
		subscriptions: make(map[voteKey]time.Time),
		posts:         make(map[string]models.Post),
		comments:      make(map[string]models.Comment),
		postVotes:     make(map[voteKey]vote.Type),
		commentVotes:  make(map[voteKey]vote.Type),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) PostExists(_ context.Context, postID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.posts[postID]
	return ok, nil
}

func (m *MemoryStore) CommentExists(_ context.Context, commentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.comments[commentID]
	return ok, nil
}

func upsertIn(votes map[voteKey]vote.Type, k voteKey, t vote.Type) vote.Outcome {
	outcome, next := vote.Resolve(votes[k], t)
	if next == vote.None {
		delete(votes, k)
	} else {
		votes[k] = next
	}
	return outcome
}

func (m *MemoryStore) UpsertPostVote(_ context.Context, userID, postID string, t vote.Type) (vote.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return upsertIn(m.postVotes, voteKey{userID, postID}, t), nil
}

func (m *MemoryStore) UpsertCommentVote(_ context.Context, userID, commentID string, t vote.Type) (vote.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return upsertIn(m.commentVotes, voteKey{userID, commentID}, t), nil
}

func typesFor(votes map[voteKey]vote.Type, targetID string) []vote.Type {
	var types []vote.Type
	for k, t := range votes {
		if k.targetID == targetID {
			types = append(types, t)
		}
	}
	return types
}

func (m *MemoryStore) PostVoteTypes(_ context.Context, postID string) ([]vote.Type, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return typesFor(m.postVotes, postID), nil
}

func (m *MemoryStore) CommentVoteTypes(_ context.Context, commentID string) ([]vote.Type, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return typesFor(m.commentVotes, commentID), nil
}

func (m *MemoryStore) UserPostVote(_ context.Context, userID, postID string) (vote.Type, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.postVotes[voteKey{userID, postID}], nil
}

func (m *MemoryStore) CreatePost(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = m.now()
	}
	post.UpdatedAt = post.CreatedAt
	stored := *post
	stored.Author, stored.Subreddit = models.User{}, models.Subreddit{}
	m.posts[post.ID] = stored
	return nil
}

// hydrate fills relations the way gorm preloads would. Callers hold mu.
func (m *MemoryStore) hydrate(p models.Post) models.Post {
	p.Author = m.users[p.AuthorID]
	p.Subreddit = m.subreddits[p.SubredditID]
	return p
}

func (m *MemoryStore) GetPost(_ context.Context, postID string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return nil, ErrNotFound
	}
	p = m.hydrate(p)
	return &p, nil
}

func (m *MemoryStore) UpdatePost(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[post.ID]
	if !ok {
		return ErrNotFound
	}
	p.Title, p.Content, p.UpdatedAt = post.Title, post.Content, m.now()
	m.posts[post.ID] = p
	return nil
}

func (m *MemoryStore) DeletePost(_ context.Context, postID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[postID]; !ok {
		return ErrNotFound
	}
	for id, c := range m.comments {
		if c.PostID == postID {
			m.deleteCommentLocked(id)
		}
	}
	for k := range m.postVotes {
		if k.targetID == postID {
			delete(m.postVotes, k)
		}
	}
	delete(m.posts, postID)
	return nil
}

func (m *MemoryStore) ListPosts(_ context.Context, q FeedQuery) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := make(map[string]bool, len(q.SubredditIDs))
	for _, id := range q.SubredditIDs {
		allowed[id] = true
	}

	var matched []models.Post
	for _, p := range m.posts {
		switch {
		case q.SubredditName != "":
			if m.subreddits[p.SubredditID].Name != q.SubredditName {
				continue
			}
		case q.RestrictToSubreddits:
			if !allowed[p.SubredditID] {
				continue
			}
		}
		p = m.hydrate(p)
		for k, t := range m.postVotes {
			if k.targetID == p.ID {
				p.Votes = append(p.Votes, models.Vote{UserID: k.userID, PostID: p.ID, Type: t})
			}
		}
		matched = append(matched, p)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if q.Offset >= len(matched) {
		return []models.Post{}, nil
	}
	end := q.Offset + q.Limit
	if q.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[q.Offset:end], nil
}

func (m *MemoryStore) CountComments(_ context.Context, postIDs []string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]bool, len(postIDs))
	for _, id := range postIDs {
		want[id] = true
	}
	counts := make(map[string]int, len(postIDs))
	for _, c := range m.comments {
		if want[c.PostID] {
			counts[c.PostID]++
		}
	}
	return counts, nil
}

func (m *MemoryStore) CreateSubreddit(_ context.Context, sub *models.Subreddit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.subreddits {
		if existing.Name == sub.Name {
			return ErrConflict
		}
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	sub.CreatedAt = m.now()
	m.subreddits[sub.ID] = *sub
	m.subscriptions[voteKey{sub.CreatorID, sub.ID}] = sub.CreatedAt
	return nil
}

func (m *MemoryStore) GetSubreddit(_ context.Context, subredditID string) (*models.Subreddit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subreddits[subredditID]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Subscribe(_ context.Context, userID, subredditID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := voteKey{userID, subredditID}
	if _, ok := m.subscriptions[k]; ok {
		return ErrConflict
	}
	m.subscriptions[k] = m.now()
	return nil
}

func (m *MemoryStore) Unsubscribe(_ context.Context, userID, subredditID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := voteKey{userID, subredditID}
	if _, ok := m.subscriptions[k]; !ok {
		return ErrNotFound
	}
	delete(m.subscriptions, k)
	return nil
}

func (m *MemoryStore) IsSubscribed(_ context.Context, userID, subredditID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.subscriptions[voteKey{userID, subredditID}]
	return ok, nil
}

func (m *MemoryStore) SubscribedSubredditIDs(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for k := range m.subscriptions {
		if k.userID == userID {
			ids = append(ids, k.targetID)
		}
	}
	return ids, nil
}

func (m *MemoryStore) CreateComment(_ context.Context, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	comment.CreatedAt = m.now()
	stored := *comment
	stored.Author = models.User{}
	m.comments[comment.ID] = stored
	return nil
}

func (m *MemoryStore) GetComment(_ context.Context, commentID string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[commentID]
	if !ok {
		return nil, ErrNotFound
	}
	c.Author = m.users[c.AuthorID]
	return &c, nil
}

func (m *MemoryStore) ListComments(_ context.Context, postID string) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Comment
	for _, c := range m.comments {
		if c.PostID != postID {
			continue
		}
		c.Author = m.users[c.AuthorID]
		for k, t := range m.commentVotes {
			if k.targetID == c.ID {
				c.Votes = append(c.Votes, models.CommentVote{UserID: k.userID, CommentID: c.ID, Type: t})
			}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) deleteCommentLocked(commentID string) {
	for k := range m.commentVotes {
		if k.targetID == commentID {
			delete(m.commentVotes, k)
		}
	}
	for id, c := range m.comments {
		if c.ReplyToID != nil && *c.ReplyToID == commentID {
			c.ReplyToID = nil
			m.comments[id] = c
		}
	}
	delete(m.comments, commentID)
}

func (m *MemoryStore) DeleteComment(_ context.Context, commentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[commentID]; !ok {
		return ErrNotFound
	}
	m.deleteCommentLocked(commentID)
	return nil
}

func (m *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email || u.Username == user.Username {
			return ErrConflict
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = m.now()
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}
