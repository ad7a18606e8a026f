package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emilythestrangee/breadit/backend/internal/vote"
)

type Comment struct {
	ID        string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Text      string        `gorm:"not null" json:"text"`
	AuthorID  string        `gorm:"type:varchar(36);index;not null" json:"authorId"`
	Author    User          `gorm:"foreignKey:AuthorID" json:"author"`
	PostID    string        `gorm:"type:varchar(36);index;not null" json:"postId"`
	ReplyToID *string       `gorm:"type:varchar(36);index" json:"replyToId,omitempty"`
	Votes     []CommentVote `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func (c *Comment) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type CreateCommentRequest struct {
	PostID    string  `json:"postId" binding:"required"`
	Text      string  `json:"text" binding:"required,max=10000"`
	ReplyToID *string `json:"replyToId,omitempty"`
}

// CommentView is a comment with its tally and the reader's own vote.
type CommentView struct {
	Comment
	VotesAmount int       `json:"votesAmount"`
	CurrentVote vote.Type `json:"currentVote,omitempty"`
}
