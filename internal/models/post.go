package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emilythestrangee/breadit/backend/internal/vote"
)

type Post struct {
	ID    string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title string `gorm:"not null" json:"title"`
	// Content is the serialized rich-text document, stored as-is.
	Content     string    `gorm:"type:text" json:"content"`
	AuthorID    string    `gorm:"type:varchar(36);index;not null" json:"authorId"`
	Author      User      `gorm:"foreignKey:AuthorID" json:"author"`
	SubredditID string    `gorm:"type:varchar(36);index;not null" json:"subredditId"`
	Subreddit   Subreddit `gorm:"foreignKey:SubredditID" json:"subreddit"`
	Votes       []Vote    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Comments    []Comment `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p *Post) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type CreatePostRequest struct {
	Title       string          `json:"title" binding:"required,min=3,max=128"`
	Content     json.RawMessage `json:"content"`
	SubredditID string          `json:"subredditId" binding:"required"`
}

type UpdatePostRequest struct {
	Title   string          `json:"title" binding:"omitempty,min=3,max=128"`
	Content json.RawMessage `json:"content"`
}

// PostSummary is the feed and detail projection of a post.
type PostSummary struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Content        json.RawMessage `json:"content"`
	AuthorUsername string          `json:"authorUsername"`
	SubredditName  string          `json:"subredditName,omitempty"`
	VotesAmount    int             `json:"votesAmount"`
	CurrentVote    vote.Type       `json:"currentVote,omitempty"`
	CommentAmount  int             `json:"commentAmount"`
	CreatedAt      time.Time       `json:"createdAt"`
}
